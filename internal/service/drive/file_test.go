package drive

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/storage"
	"cloudvault/internal/telemetry"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestFileService_UploadDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)

	tests := []struct {
		name    string
		content []byte
	}{
		{"text", []byte("hello, world")},
		{"empty", []byte{}},
		{"binary", bytes.Repeat([]byte{0, 1, 2, 0xff}, 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := f.upload(t, "u1", docs.ID, tt.name+".bin", tt.content)
			assert.Equal(t, int64(len(tt.content)), file.Size)
			assert.Equal(t, storage.Checksum(tt.content), file.Checksum)
			assert.Equal(t, string(storage.KindLocal), file.StorageProvider)
			assert.True(t, strings.HasPrefix(file.StorageKey, "u1/"))
			assert.Equal(t, storage.StoredName(file.StorageKey), file.Name)

			stored, err := f.fileRepo.GetByID(ctx, file.ID)
			require.NoError(t, err)
			assert.Equal(t, file.StorageKey, stored.StorageKey, "storage key survives persistence")

			got, rc, err := f.files.DownloadFile(ctx, "u1", file.ID)
			require.NoError(t, err)
			assert.Equal(t, file.ID, got.ID)
			assert.Equal(t, tt.content, readAll(t, rc))
		})
	}

	uploads := f.events.find(telemetry.OpFileUpload)
	assert.Len(t, uploads, len(tests))
	assert.NotEmpty(t, f.events.find(telemetry.OpStorageUpload))
}

func TestFileService_UploadMimeType(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)

	tests := []struct {
		name     string
		declared string
		content  []byte
		want     string
	}{
		{"declared type is kept", "application/pdf", []byte("not really a pdf"), "application/pdf"},
		{"empty type is sniffed", "", pngHeader, "image/png"},
		{"generic type is sniffed", "application/octet-stream", pngHeader, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := f.files.UploadFile(ctx, &driveSvc.UploadFileRequest{
				OwnerID:      "u1",
				FolderID:     docs.ID,
				OriginalName: tt.name + ".dat",
				MimeType:     tt.declared,
				Content:      bytes.NewReader(tt.content),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, file.MimeType)

			_, rc, err := f.files.DownloadFile(ctx, "u1", file.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.content, readAll(t, rc), "sniffing must not eat bytes")
		})
	}
}

func TestFileService_UploadRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	trashed := f.mkdir(t, "u1", "Trashed", nil)
	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", trashed.ID))

	tests := []struct {
		name    string
		req     *driveSvc.UploadFileRequest
		wantErr error
	}{
		{"missing folder id", &driveSvc.UploadFileRequest{OwnerID: "u1", OriginalName: "a", Content: strings.NewReader("x")}, domain.ErrValidation},
		{"empty name", &driveSvc.UploadFileRequest{OwnerID: "u1", FolderID: docs.ID, OriginalName: " ", Content: strings.NewReader("x")}, domain.ErrValidation},
		{"nil content", &driveSvc.UploadFileRequest{OwnerID: "u1", FolderID: docs.ID, OriginalName: "a"}, domain.ErrValidation},
		{"unknown folder", &driveSvc.UploadFileRequest{OwnerID: "u1", FolderID: "missing", OriginalName: "a", Content: strings.NewReader("x")}, domain.ErrNotFound},
		{"trashed folder", &driveSvc.UploadFileRequest{OwnerID: "u1", FolderID: trashed.ID, OriginalName: "a", Content: strings.NewReader("x")}, domain.ErrNotFound},
		{"folder of another owner", &driveSvc.UploadFileRequest{OwnerID: "u2", FolderID: docs.ID, OriginalName: "a", Content: strings.NewReader("x")}, domain.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.files.UploadFile(ctx, tt.req)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
	assert.Equal(t, 0, f.storedObjects(t))
}

type failingCreateRepo struct {
	driveRepo.FileRepository
}

func (r failingCreateRepo) Create(context.Context, *models.File) error {
	return errors.New("insert failed")
}

func TestFileService_UploadRemovesBytesWhenRecordFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, withFileRepo(func(r driveRepo.FileRepository) driveRepo.FileRepository {
		return failingCreateRepo{FileRepository: r}
	}))
	docs := f.mkdir(t, "u1", "Docs", nil)

	_, err := f.files.UploadFile(ctx, &driveSvc.UploadFileRequest{
		OwnerID:      "u1",
		FolderID:     docs.ID,
		OriginalName: "orphan.txt",
		Content:      strings.NewReader("bytes"),
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.storedObjects(t))

	uploads := f.events.find(telemetry.OpFileUpload)
	require.Len(t, uploads, 1)
	assert.False(t, uploads[0].Success())
}

func TestFileService_UpdateFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	archive := f.mkdir(t, "u1", "Archive", nil)
	file := f.upload(t, "u1", docs.ID, "draft.txt", []byte("x"))

	updated, err := f.files.UpdateFile(ctx, "u1", file.ID, &driveSvc.UpdateFileRequest{
		OriginalName: ptr("final.txt"),
		FolderID:     &archive.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "final.txt", updated.OriginalName)
	assert.Equal(t, archive.ID, updated.FolderID)
	assert.Equal(t, file.StorageKey, updated.StorageKey, "renames never touch stored bytes")

	inDocs, err := f.fileRepo.ListByFolder(ctx, docs.ID, false)
	require.NoError(t, err)
	assert.Empty(t, inDocs)

	_, err = f.files.UpdateFile(ctx, "u1", file.ID, &driveSvc.UpdateFileRequest{})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.files.UpdateFile(ctx, "u1", file.ID, &driveSvc.UpdateFileRequest{FolderID: ptr("")})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.files.UpdateFile(ctx, "u1", file.ID, &driveSvc.UpdateFileRequest{FolderID: ptr("missing")})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.files.UpdateFile(ctx, "u2", file.ID, &driveSvc.UpdateFileRequest{OriginalName: ptr("mine")})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestFileService_TrashLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	file := f.upload(t, "u1", docs.ID, "a.txt", []byte("abc"))

	err := f.files.PermanentDeleteFile(ctx, "u1", file.ID)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", file.ID))
	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", file.ID), "second delete is a no-op")

	_, _, err = f.files.DownloadFile(ctx, "u1", file.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	restored, err := f.files.RestoreFile(ctx, "u1", file.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", file.ID))
	require.NoError(t, f.files.PermanentDeleteFile(ctx, "u1", file.ID))

	_, err = f.fileRepo.GetByID(ctx, file.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Equal(t, 0, f.storedObjects(t))
}

func TestFileService_RestoreRequiresActiveFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	file := f.upload(t, "u1", docs.ID, "a.txt", []byte("abc"))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))

	_, err := f.files.RestoreFile(ctx, "u1", file.ID)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "restore the parent folder first", verr.Message)
}

func TestFileService_DownloadMissingBytesIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	file := f.upload(t, "u1", docs.ID, "a.txt", []byte("abc"))

	provider, err := f.registry.Get(ctx, file.StorageProvider)
	require.NoError(t, err)
	require.NoError(t, provider.Delete(ctx, file.StorageKey))

	_, _, err = f.files.DownloadFile(ctx, "u1", file.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
