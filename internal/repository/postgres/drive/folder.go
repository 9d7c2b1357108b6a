package drive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cloudvault/internal/domain"
	models "cloudvault/internal/domain/models/drive"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	"cloudvault/internal/repository/postgres"
)

const folderColumns = `id, owner_id, parent_id, name, path, is_shared, share_id, created_at, updated_at, deleted_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) driveRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, parent_id, name, path, is_shared, share_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		folder.ID,
		folder.OwnerID,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.IsShared,
		folder.ShareID,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return folder, nil
}

// GetByShareID retrieves a shared folder by its token
func (r *PostgresFolderRepository) GetByShareID(ctx context.Context, shareID string) (*models.Folder, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE share_id = $1 AND is_shared`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, shareID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("shared folder: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder by share id: %w", err)
	}

	return folder, nil
}

// ListChildren lists immediate child folders
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, ownerID string, parentID *string, includeTrashed bool) ([]models.Folder, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL AND ($2 OR deleted_at IS NULL)
			ORDER BY name
		`, folderColumns, r.tables.Folders)
		args = []any{ownerID, includeTrashed}
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE owner_id = $1 AND parent_id = $2 AND ($3 OR deleted_at IS NULL)
			ORDER BY name
		`, folderColumns, r.tables.Folders)
		args = []any{ownerID, *parentID, includeTrashed}
	}

	return r.queryFolders(ctx, "list child folders", query, args...)
}

// FindActiveByName finds an active sibling folder with the given name
func (r *PostgresFolderRepository) FindActiveByName(ctx context.Context, ownerID string, parentID *string, name string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND name = $3 AND deleted_at IS NULL
		LIMIT 1
	`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, ownerID, parentID, name))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find folder by name: %w", err)
	}

	return folder, nil
}

// ListTrashed lists every trashed folder of an owner
func (r *PostgresFolderRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, name
	`, folderColumns, r.tables.Folders)

	return r.queryFolders(ctx, "list trashed folders", query, ownerID)
}

// Search finds active folders by name substring or text-index match
func (r *PostgresFolderRepository) Search(ctx context.Context, opts *models.SearchOptions) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND (name ILIKE $2 ESCAPE '\' OR to_tsvector('simple', name) @@ plainto_tsquery('simple', $3))
		ORDER BY name
		LIMIT $4
	`, folderColumns, r.tables.Folders)

	return r.queryFolders(ctx, "search folders", query, opts.OwnerID, postgres.ContainsPattern(opts.Query), opts.Query, opts.Limit)
}

// Update updates a folder
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, path = $3, is_shared = $4, share_id = $5, deleted_at = $6, updated_at = $7
		WHERE id = $8
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.IsShared,
		folder.ShareID,
		folder.DeletedAt,
		folder.UpdatedAt,
		folder.ID,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// MarkDeleted stamps deletedAt on every listed folder that is currently active
func (r *PostgresFolderRepository) MarkDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $2, updated_at = NOW()
		WHERE id = ANY($1) AND deleted_at IS NULL
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, deletedAt); err != nil {
		return fmt.Errorf("mark folders deleted: %w", err)
	}
	return nil
}

// ClearDeleted clears deletedAt on every listed folder stamped with deletedAt
func (r *PostgresFolderRepository) ClearDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND deleted_at = $2
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, deletedAt); err != nil {
		return fmt.Errorf("restore folders: %w", err)
	}
	return nil
}

// DeleteMany permanently removes the listed folders
func (r *PostgresFolderRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder still has children: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete folders: %w", err)
	}
	return nil
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, op, query string, args ...any) ([]models.Folder, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return []models.Folder{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		folders = append(folders, *folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return folders, nil
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var f models.Folder
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.ParentID,
		&f.Name,
		&f.Path,
		&f.IsShared,
		&f.ShareID,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
