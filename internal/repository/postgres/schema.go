package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the drive tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db DBTX, tables *TableNames, tablePrefix string) error {
	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			parent_id UUID REFERENCES ` + tables.Folders + `(id),
			name TEXT NOT NULL CHECK (length(btrim(name)) > 0),
			path TEXT NOT NULL,
			is_shared BOOLEAN NOT NULL DEFAULT FALSE,
			share_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			CHECK (is_shared = (share_id IS NOT NULL))
		)
	`
	if _, err := db.Exec(ctx, createFolders); err != nil {
		return fmt.Errorf("create folders table: %w", err)
	}

	createFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			folder_id UUID NOT NULL REFERENCES ` + tables.Folders + `(id),
			name TEXT NOT NULL,
			original_name TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			storage_provider TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size BIGINT NOT NULL CHECK (size >= 0),
			checksum TEXT NOT NULL DEFAULT '',
			is_shared BOOLEAN NOT NULL DEFAULT FALSE,
			share_id TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ,
			UNIQUE (storage_provider, storage_key),
			CHECK (is_shared = (share_id IS NOT NULL))
		)
	`
	if _, err := db.Exec(ctx, createFiles); err != nil {
		return fmt.Errorf("create files table: %w", err)
	}

	p := tablePrefix
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + p + `folders_owner_deleted ON ` + tables.Folders + `(owner_id, deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `folders_owner_parent ON ` + tables.Folders + `(owner_id, parent_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `folders_share_id ON ` + tables.Folders + `(share_id) WHERE share_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `folders_name_fts ON ` + tables.Folders + ` USING GIN (to_tsvector('simple', name))`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `files_owner_deleted ON ` + tables.Files + `(owner_id, deleted_at)`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `files_folder ON ` + tables.Files + `(folder_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_` + p + `files_share_id ON ` + tables.Files + `(share_id) WHERE share_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + p + `files_name_fts ON ` + tables.Files + ` USING GIN (to_tsvector('simple', original_name))`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropSchema drops the drive tables (files first, they reference folders).
func DropSchema(ctx context.Context, db DBTX, tables *TableNames) error {
	for _, table := range []string{tables.Files, tables.Folders} {
		if _, err := db.Exec(ctx, `DROP TABLE IF EXISTS `+table+` CASCADE`); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// TruncateData removes every row but keeps the schema.
func TruncateData(ctx context.Context, db DBTX, tables *TableNames) error {
	_, err := db.Exec(ctx, `TRUNCATE `+tables.Files+`, `+tables.Folders)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}
