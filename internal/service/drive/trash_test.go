package drive

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
)

func TestTrashService_ListTrashShowsRootsOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	sub := f.mkdir(t, "u1", "Sub", &docs.ID)
	f.upload(t, "u1", sub.ID, "inner.txt", []byte("i"))
	music := f.mkdir(t, "u1", "Music", nil)
	song := f.upload(t, "u1", music.ID, "song.mp3", []byte("la"))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))
	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", song.ID))

	listing, err := f.trash.ListTrash(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, listing.Folders, 1)
	assert.Equal(t, docs.ID, listing.Folders[0].ID)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, song.ID, listing.Files[0].ID)

	other, err := f.trash.ListTrash(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other.Folders)
	assert.Empty(t, other.Files)
}

func TestTrashService_EmptyTrash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	docs := f.mkdir(t, "u1", "Docs", nil)
	sub := f.mkdir(t, "u1", "Sub", &docs.ID)
	inner := f.upload(t, "u1", sub.ID, "inner.txt", []byte("i"))
	music := f.mkdir(t, "u1", "Music", nil)
	song := f.upload(t, "u1", music.ID, "song.mp3", []byte("la"))
	kept := f.upload(t, "u1", music.ID, "kept.mp3", []byte("k"))

	require.NoError(t, f.folders.SoftDeleteFolder(ctx, "u1", docs.ID))
	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", song.ID))

	purged, err := f.trash.EmptyTrash(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	for _, id := range []string{inner.ID, song.ID} {
		_, err := f.fileRepo.GetByID(ctx, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	}
	_, err = f.folderRepo.GetByID(ctx, sub.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.files.GetFile(ctx, "u1", kept.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.storedObjects(t))

	listing, err := f.trash.ListTrash(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, listing.Folders)
	assert.Empty(t, listing.Files)

	purged, err = f.trash.EmptyTrash(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reports := f.mkdir(t, "u1", "Reports", nil)
	f.mkdir(t, "u1", "Old reports", nil)
	f.upload(t, "u1", reports.ID, "q1-report.pdf", []byte("1"))
	gone := f.upload(t, "u1", reports.ID, "q2-report.pdf", []byte("2"))
	require.NoError(t, f.files.SoftDeleteFile(ctx, "u1", gone.ID))
	theirs := f.mkdir(t, "u2", "Reports", nil)
	f.upload(t, "u2", theirs.ID, "report.pdf", []byte("3"))

	res, err := f.search.Search(ctx, &models.SearchOptions{OwnerID: "u1", Query: "  REPORT "})
	require.NoError(t, err)
	assert.Equal(t, "REPORT", res.Query)
	assert.Len(t, res.Folders, 2)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "q1-report.pdf", res.Files[0].OriginalName)

	for i := 0; i < 3; i++ {
		f.mkdir(t, "u1", fmt.Sprintf("report-%d", i), nil)
	}
	res, err = f.search.Search(ctx, &models.SearchOptions{OwnerID: "u1", Query: "report", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Folders, 2)

	tests := []struct {
		name string
		opts *models.SearchOptions
	}{
		{"empty query", &models.SearchOptions{OwnerID: "u1", Query: "  "}},
		{"limit above maximum", &models.SearchOptions{OwnerID: "u1", Query: "x", Limit: models.MaxSearchLimit + 1}},
		{"missing owner", &models.SearchOptions{Query: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.search.Search(ctx, tt.opts)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}
