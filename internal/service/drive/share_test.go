package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	"cloudvault/internal/telemetry"
)

func TestShareService_TokenIsStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	file := f.upload(t, "u1", docs.ID, "a.txt", []byte("a"))

	first, err := f.shares.Share(ctx, "u1", models.ShareKindFile, file.ID)
	require.NoError(t, err)
	assert.Len(t, first.ShareID, 32)

	second, err := f.shares.Share(ctx, "u1", models.ShareKindFile, file.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ShareID, second.ShareID, "repeated share returns the existing token")

	require.NoError(t, f.shares.Unshare(ctx, "u1", models.ShareKindFile, file.ID))

	stored, err := f.fileRepo.GetByID(ctx, file.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsShared)
	assert.Nil(t, stored.ShareID)

	third, err := f.shares.Share(ctx, "u1", models.ShareKindFile, file.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ShareID, third.ShareID, "share after unshare issues a new token")

	_, err = f.public.Resolve(ctx, first.ShareID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Len(t, f.events.find(telemetry.OpFileShare), 3)
	assert.Len(t, f.events.find(telemetry.OpFileUnshare), 1)
}

func TestShareService_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	docs := f.mkdir(t, "u1", "Docs", nil)
	trashed := f.mkdir(t, "u1", "Trashed", nil)
	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", trashed.ID))

	_, err := f.shares.Share(ctx, "u2", models.ShareKindFolder, docs.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.shares.Share(ctx, "u1", models.ShareKindFolder, trashed.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.shares.Share(ctx, "u1", models.ShareKind("album"), docs.ID)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	require.NoError(t, f.shares.Unshare(ctx, "u1", models.ShareKindFolder, docs.ID), "unsharing an unshared folder is a no-op")
}

func TestPublicGateway_SharedFolderScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	projects := f.mkdir(t, "u1", "Projects", &docs.ID)
	file := f.upload(t, "u1", projects.ID, "a.txt", []byte("alpha"))

	link, err := f.shares.Share(ctx, "u1", models.ShareKindFolder, docs.ID)
	require.NoError(t, err)

	target, err := f.public.Resolve(ctx, link.ShareID)
	require.NoError(t, err)
	assert.Equal(t, models.ShareKindFolder, target.Kind)
	assert.Equal(t, docs.ID, target.Folder.ID)

	root, err := f.public.ListShared(ctx, link.ShareID, nil)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, root.Folder.ID)
	require.Len(t, root.Folders, 1)
	assert.Equal(t, "Projects", root.Folders[0].Name)
	assert.Empty(t, root.Files)
	assert.Equal(t, []models.BreadcrumbItem{{ID: docs.ID, Name: "Docs"}}, root.Breadcrumb)

	inner, err := f.public.ListShared(ctx, link.ShareID, &projects.ID)
	require.NoError(t, err)
	require.Len(t, inner.Files, 1)
	assert.Equal(t, "a.txt", inner.Files[0].Name)
	assert.Equal(t, int64(5), inner.Files[0].Size)
	require.Len(t, inner.Breadcrumb, 2)
	assert.Equal(t, docs.ID, inner.Breadcrumb[0].ID)

	got, rc, err := f.public.DownloadShared(ctx, link.ShareID, &file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)
	assert.Equal(t, []byte("alpha"), readAll(t, rc))

	// A folder share has no direct download
	_, _, err = f.public.DownloadShared(ctx, link.ShareID, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, f.shares.Unshare(ctx, "u1", models.ShareKindFolder, docs.ID))

	_, err = f.public.ListShared(ctx, link.ShareID, nil)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, _, err = f.public.DownloadShared(ctx, link.ShareID, &file.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Len(t, f.events.find(telemetry.OpPublicDownload), 3)
}

func TestPublicGateway_ContainmentFailuresLookLikeUnknownTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	inside := f.mkdir(t, "u1", "Inside", &docs.ID)
	outside := f.mkdir(t, "u1", "Outside", nil)
	foreign := f.mkdir(t, "u2", "Foreign", nil)
	outsideFile := f.upload(t, "u1", outside.ID, "secret.txt", []byte("s"))
	trashedInside := f.upload(t, "u1", inside.ID, "gone.txt", []byte("g"))
	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", trashedInside.ID))

	link, err := f.shares.Share(ctx, "u1", models.ShareKindFolder, docs.ID)
	require.NoError(t, err)

	_, unknownErr := f.public.ListShared(ctx, "no-such-token", nil)
	require.Error(t, unknownErr)

	listCases := map[string]string{
		"sibling tree":       outside.ID,
		"other owner":        foreign.ID,
		"nonexistent folder": "missing",
	}
	for name, folderID := range listCases {
		t.Run("list "+name, func(t *testing.T) {
			_, err := f.public.ListShared(ctx, link.ShareID, &folderID)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrNotFound))
			assert.Equal(t, unknownErr.Error(), err.Error())
		})
	}

	downloadCases := map[string]string{
		"file outside the share": outsideFile.ID,
		"trashed file inside":    trashedInside.ID,
		"nonexistent file":       "missing",
	}
	for name, fileID := range downloadCases {
		t.Run("download "+name, func(t *testing.T) {
			_, _, err := f.public.DownloadShared(ctx, link.ShareID, &fileID)
			require.Error(t, err)
			assert.Equal(t, unknownErr.Error(), err.Error())
		})
	}

	t.Run("hidden from listings", func(t *testing.T) {
		listing, err := f.public.ListShared(ctx, link.ShareID, &inside.ID)
		require.NoError(t, err)
		assert.Empty(t, listing.Files)
	})
}

func TestPublicGateway_DirectFileShare(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	file := f.upload(t, "u1", docs.ID, "report.txt", []byte("report"))
	other := f.upload(t, "u1", docs.ID, "other.txt", []byte("other"))

	link, err := f.shares.Share(ctx, "u1", models.ShareKindFile, file.ID)
	require.NoError(t, err)

	listing, err := f.public.ListShared(ctx, link.ShareID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ShareKindFile, listing.Kind)
	require.NotNil(t, listing.File)
	assert.Equal(t, "report.txt", listing.File.Name)

	_, err = f.public.ListShared(ctx, link.ShareID, &docs.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, rc, err := f.public.DownloadShared(ctx, link.ShareID, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("report"), readAll(t, rc))

	_, _, err = f.public.DownloadShared(ctx, link.ShareID, &other.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// Direct token access does not depend on the folder's share state
	_, rc, err = f.public.DownloadShared(ctx, link.ShareID, &file.ID)
	require.NoError(t, err)
	rc.Close()
}

func TestPublicGateway_TrashedShareRootIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	link, err := f.shares.Share(ctx, "u1", models.ShareKindFolder, docs.ID)
	require.NoError(t, err)

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))
	_, err = f.public.Resolve(ctx, link.ShareID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.folders.RestoreFolder(ctx, "u1", docs.ID)
	require.NoError(t, err)
	_, err = f.public.Resolve(ctx, link.ShareID)
	assert.NoError(t, err, "restoring the root revives its link")
}

func TestPublicGateway_CorruptionIsConcealed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	child := f.mkdir(t, "u1", "Child", &docs.ID)
	loopA := f.mkdir(t, "u1", "LoopA", nil)
	loopB := f.mkdir(t, "u1", "LoopB", &loopA.ID)
	loopA.ParentID = &loopB.ID
	require.NoError(t, f.folderRepo.Update(ctx, loopA))

	link, err := f.shares.Share(ctx, "u1", models.ShareKindFolder, docs.ID)
	require.NoError(t, err)

	_, err = f.public.ListShared(ctx, link.ShareID, &loopB.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrCorruption))

	_, err = f.public.ListShared(ctx, link.ShareID, &child.ID)
	assert.NoError(t, err)
}
