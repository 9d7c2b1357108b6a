package drive

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/domain"
	driveSvc "cloudvault/internal/domain/services/drive"
	"cloudvault/internal/telemetry"
)

func TestFolderService_CreateFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "  Docs  ", nil)
	assert.Equal(t, "Docs", docs.Name)
	assert.Equal(t, "/Docs/", docs.Path)
	assert.Nil(t, docs.ParentID)
	assert.False(t, docs.IsShared)
	assert.Nil(t, docs.DeletedAt)

	projects := f.mkdir(t, "u1", "Projects", &docs.ID)
	assert.Equal(t, "/Docs/Projects/", projects.Path)

	emptyParent := f.mkdir(t, "u1", "Top", ptr(""))
	assert.Nil(t, emptyParent.ParentID)

	trashed := f.mkdir(t, "u1", "Trashed", nil)
	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", trashed.ID))

	tests := []struct {
		name    string
		req     *driveSvc.CreateFolderRequest
		wantErr error
	}{
		{"empty name", &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: "   "}, domain.ErrValidation},
		{"name with slash", &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: "a/b"}, domain.ErrValidation},
		{"name too long", &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: strings.Repeat("x", 256)}, domain.ErrValidation},
		{"missing owner", &driveSvc.CreateFolderRequest{Name: "x"}, domain.ErrValidation},
		{"unknown parent", &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: "x", ParentID: ptr("missing")}, domain.ErrNotFound},
		{"parent of another owner", &driveSvc.CreateFolderRequest{OwnerID: "u2", Name: "x", ParentID: &docs.ID}, domain.ErrForbidden},
		{"trashed parent", &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: "x", ParentID: &trashed.ID}, domain.ErrNotFound},
		{"active sibling with same name", &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: "Projects", ParentID: &docs.ID}, domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.folders.CreateFolder(ctx, tt.req)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	// Conflict carries the existing folder id
	_, err := f.folders.CreateFolder(ctx, &driveSvc.CreateFolderRequest{OwnerID: "u1", Name: "Docs"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, docs.ID, conflict.ResourceID)

	// Another owner may reuse the name
	f.mkdir(t, "u2", "Docs", nil)

	assert.NotEmpty(t, f.events.find(telemetry.OpFolderCreate))
}

func TestFolderService_ListRootFoldersAndDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	f.mkdir(t, "u1", "Music", nil)
	f.mkdir(t, "u2", "Foreign", nil)
	projects := f.mkdir(t, "u1", "Projects", &docs.ID)
	f.upload(t, "u1", docs.ID, "readme.md", []byte("# hi"))

	roots, err := f.folders.ListRootFolders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "Docs", roots[0].Name)
	assert.Equal(t, "Music", roots[1].Name)

	detail, err := f.folders.GetFolderDetail(ctx, "u1", projects.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.ID, detail.Folder.ID)
	require.Len(t, detail.Breadcrumb, 2)
	assert.Equal(t, docs.ID, detail.Breadcrumb[0].ID)
	assert.Equal(t, projects.ID, detail.Breadcrumb[1].ID)

	detail, err = f.folders.GetFolderDetail(ctx, "u1", docs.ID)
	require.NoError(t, err)
	require.Len(t, detail.Folders, 1)
	require.Len(t, detail.Files, 1)
	assert.Equal(t, "readme.md", detail.Files[0].OriginalName)

	_, err = f.folders.GetFolderDetail(ctx, "u2", docs.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = f.folders.GetFolderDetail(ctx, "u1", "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFolderService_UpdateFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	projects := f.mkdir(t, "u1", "Projects", &docs.ID)
	deep := f.mkdir(t, "u1", "Deep", &projects.ID)
	archive := f.mkdir(t, "u1", "Archive", nil)

	t.Run("rename recomputes own path only", func(t *testing.T) {
		updated, err := f.folders.UpdateFolder(ctx, "u1", projects.ID, &driveSvc.UpdateFolderRequest{Name: ptr("Work")})
		require.NoError(t, err)
		assert.Equal(t, "Work", updated.Name)
		assert.Equal(t, "/Docs/Work/", updated.Path)

		child, err := f.folderRepo.GetByID(ctx, deep.ID)
		require.NoError(t, err)
		assert.Equal(t, "/Docs/Projects/Deep/", child.Path)
	})

	t.Run("move under another folder", func(t *testing.T) {
		moved, err := f.folders.UpdateFolder(ctx, "u1", projects.ID, &driveSvc.UpdateFolderRequest{
			ParentID: driveSvc.OptionalParent{Present: true, Value: &archive.ID},
		})
		require.NoError(t, err)
		require.NotNil(t, moved.ParentID)
		assert.Equal(t, archive.ID, *moved.ParentID)
		assert.Equal(t, "/Archive/Work/", moved.Path)

		detail, err := f.folders.GetFolderDetail(ctx, "u1", archive.ID)
		require.NoError(t, err)
		require.Len(t, detail.Folders, 1)
		assert.Equal(t, projects.ID, detail.Folders[0].ID)
	})

	t.Run("move to root", func(t *testing.T) {
		moved, err := f.folders.UpdateFolder(ctx, "u1", projects.ID, &driveSvc.UpdateFolderRequest{
			ParentID: driveSvc.OptionalParent{Present: true},
		})
		require.NoError(t, err)
		assert.Nil(t, moved.ParentID)
		assert.Equal(t, "/Work/", moved.Path)
	})

	t.Run("move into itself or a descendant is rejected", func(t *testing.T) {
		for _, target := range []string{projects.ID, deep.ID} {
			_, err := f.folders.UpdateFolder(ctx, "u1", projects.ID, &driveSvc.UpdateFolderRequest{
				ParentID: driveSvc.OptionalParent{Present: true, Value: ptr(target)},
			})
			assert.True(t, errors.Is(err, domain.ErrValidation), "target %s: %v", target, err)
		}
	})

	t.Run("rename onto an active sibling conflicts", func(t *testing.T) {
		_, err := f.folders.UpdateFolder(ctx, "u1", projects.ID, &driveSvc.UpdateFolderRequest{Name: ptr("Archive")})
		assert.True(t, errors.Is(err, domain.ErrConflict))
	})

	t.Run("empty request is invalid", func(t *testing.T) {
		_, err := f.folders.UpdateFolder(ctx, "u1", projects.ID, &driveSvc.UpdateFolderRequest{})
		assert.True(t, errors.Is(err, domain.ErrValidation))
	})

	t.Run("other owner is forbidden", func(t *testing.T) {
		_, err := f.folders.UpdateFolder(ctx, "u2", projects.ID, &driveSvc.UpdateFolderRequest{Name: ptr("Mine")})
		assert.True(t, errors.Is(err, domain.ErrForbidden))
	})
}

func TestFolderService_SoftDeleteAndRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	projects := f.mkdir(t, "u1", "Projects", &docs.ID)
	file := f.upload(t, "u1", projects.ID, "a.txt", []byte("hello"))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))

	roots, err := f.folders.ListRootFolders(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, roots)

	_, err = f.folders.GetFolderDetail(ctx, "u1", projects.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = f.files.GetFile(ctx, "u1", file.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// All three carry the same stamp
	d, _ := f.folderRepo.GetByID(ctx, docs.ID)
	p, _ := f.folderRepo.GetByID(ctx, projects.ID)
	fl, _ := f.fileRepo.GetByID(ctx, file.ID)
	require.NotNil(t, d.DeletedAt)
	assert.True(t, d.DeletedAt.Equal(*p.DeletedAt))
	assert.True(t, d.DeletedAt.Equal(*fl.DeletedAt))

	// Bytes survive a soft delete
	assert.Equal(t, 1, f.storedObjects(t))

	restored, err := f.folders.RestoreFolder(ctx, "u1", docs.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)

	roots, err = f.folders.ListRootFolders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, roots, 1)

	detail, err := f.folders.GetFolderDetail(ctx, "u1", projects.ID)
	require.NoError(t, err)
	require.Len(t, detail.Files, 1)
	assert.Equal(t, "a.txt", detail.Files[0].OriginalName)

	assert.Len(t, f.events.find(telemetry.OpFolderDelete), 1)
	assert.Len(t, f.events.find(telemetry.OpFolderRestore), 1)
}

func TestFolderService_RestoreKeepsIndependentlyTrashedDescendants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	old := f.mkdir(t, "u1", "Old", &docs.ID)
	keep := f.mkdir(t, "u1", "Keep", &docs.ID)
	stale := f.upload(t, "u1", docs.ID, "stale.txt", []byte("x"))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", old.ID))
	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", stale.ID))

	oldBefore, err := f.folderRepo.GetByID(ctx, old.ID)
	require.NoError(t, err)

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))

	oldAfter, err := f.folderRepo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.True(t, oldBefore.DeletedAt.Equal(*oldAfter.DeletedAt), "earlier stamp is preserved")

	_, err = f.folders.RestoreFolder(ctx, "u1", docs.ID)
	require.NoError(t, err)

	detail, err := f.folders.GetFolderDetail(ctx, "u1", docs.ID)
	require.NoError(t, err)
	require.Len(t, detail.Folders, 1)
	assert.Equal(t, keep.ID, detail.Folders[0].ID)
	assert.Empty(t, detail.Files)

	listing, err := f.trash.ListTrash(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listing.Folders, 1)
	assert.Equal(t, old.ID, listing.Folders[0].ID)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, stale.ID, listing.Files[0].ID)
}

func TestFolderService_SoftDeleteRetryFinishesCascade(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	child := f.mkdir(t, "u1", "Child", &docs.ID)

	// Simulate a cascade that stopped after marking only the root
	stamp := trashStamp()
	require.NoError(t, f.folderRepo.MarkDeleted(ctx, []string{docs.ID}, stamp))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))

	c, err := f.folderRepo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, c.DeletedAt)
	assert.True(t, c.DeletedAt.Equal(stamp))

	_, err = f.folders.RestoreFolder(ctx, "u1", docs.ID)
	require.NoError(t, err)
	c, err = f.folderRepo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, c.DeletedAt)
}

func TestFolderService_RestoreRequiresActiveParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	child := f.mkdir(t, "u1", "Child", &docs.ID)
	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))

	_, err := f.folders.RestoreFolder(ctx, "u1", child.ID)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "restore the parent folder first")

	// Restoring an active folder is a no-op
	other := f.mkdir(t, "u1", "Other", nil)
	got, err := f.folders.RestoreFolder(ctx, "u1", other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestFolderService_PermanentDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	projects := f.mkdir(t, "u1", "Projects", &docs.ID)
	a := f.upload(t, "u1", projects.ID, "a.txt", []byte("aaa"))
	b := f.upload(t, "u1", docs.ID, "b.txt", []byte("bb"))
	kept := f.mkdir(t, "u1", "Kept", nil)
	f.upload(t, "u1", kept.ID, "c.txt", []byte("c"))
	require.Equal(t, 3, f.storedObjects(t))

	err := f.folders.PermanentDeleteFolder(ctx, "u1", docs.ID)
	assert.True(t, errors.Is(err, domain.ErrValidation), "active folders cannot be purged")

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))
	require.NoError(t, f.folders.PermanentDeleteFolder(ctx, "u1", docs.ID))

	for _, id := range []string{docs.ID, projects.ID} {
		_, err := f.folderRepo.GetByID(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	}
	for _, id := range []string{a.ID, b.ID} {
		_, err := f.fileRepo.GetByID(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	}
	assert.Equal(t, 1, f.storedObjects(t))

	purges := f.events.find(telemetry.OpFolderPurge)
	require.Len(t, purges, 1)
	assert.True(t, purges[0].Success())
	assert.Equal(t, int64(5), purges[0].Bytes)
}

func TestFolderService_PermanentDeleteToleratesMissingBytes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	file := f.upload(t, "u1", docs.ID, "gone.txt", []byte("x"))

	provider, err := f.registry.Get(ctx, file.StorageProvider)
	require.NoError(t, err)
	require.NoError(t, provider.Delete(ctx, file.StorageKey))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))
	require.NoError(t, f.folders.PermanentDeleteFolder(ctx, "u1", docs.ID))

	_, err = f.fileRepo.GetByID(ctx, file.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
