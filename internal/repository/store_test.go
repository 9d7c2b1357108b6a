package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/config"
	"cloudvault/internal/domain/models/drive"
)

func TestOpen_Badger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{Database: config.DatabaseConfig{
		Driver:     "badger",
		BadgerPath: filepath.Join(t.TempDir(), "data"),
	}}

	store, err := Open(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Nil(t, store.Pool)

	folder := &drive.Folder{ID: "f1", OwnerID: "u1", Name: "Docs", Path: drive.RootPath("Docs")}
	require.NoError(t, store.Folders.Create(ctx, folder))
	require.NoError(t, store.Close())

	reopened, err := Open(ctx, cfg, logger)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Folders.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Docs", got.Name)
}

func TestOpen_UnknownDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := Open(context.Background(), &config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}}, logger)
	assert.Error(t, err)
}
