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

const fileColumns = `id, owner_id, folder_id, name, original_name, storage_key, storage_provider,
	mime_type, size, checksum, is_shared, share_id, created_at, updated_at, deleted_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) driveRepo.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new file record
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, owner_id, folder_id, name, original_name, storage_key, storage_provider,
			mime_type, size, checksum, is_shared, share_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		file.ID,
		file.OwnerID,
		file.FolderID,
		file.Name,
		file.OriginalName,
		file.StorageKey,
		file.StorageProvider,
		file.MimeType,
		file.Size,
		file.Checksum,
		file.IsShared,
		file.ShareID,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", file.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// GetByShareID retrieves a shared file by its token
func (r *PostgresFileRepository) GetByShareID(ctx context.Context, shareID string) (*models.File, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE share_id = $1 AND is_shared`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, shareID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("shared file: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file by share id: %w", err)
	}

	return file, nil
}

// ListByFolder lists files directly inside a folder
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string, includeTrashed bool) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE folder_id = $1 AND ($2 OR deleted_at IS NULL)
		ORDER BY original_name
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, "list files", query, folderID, includeTrashed)
}

// ListByFolders lists files inside any of the folders, in any state
func (r *PostgresFileRepository) ListByFolders(ctx context.Context, folderIDs []string) ([]models.File, error) {
	if len(folderIDs) == 0 {
		return []models.File{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE folder_id = ANY($1)`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, "list files in subtree", query, folderIDs)
}

// ListTrashed lists every trashed file of an owner
func (r *PostgresFileRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC, original_name
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, "list trashed files", query, ownerID)
}

// Search finds active files by original name substring or text-index match
func (r *PostgresFileRepository) Search(ctx context.Context, opts *models.SearchOptions) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE owner_id = $1 AND deleted_at IS NULL
		  AND (original_name ILIKE $2 ESCAPE '\' OR to_tsvector('simple', original_name) @@ plainto_tsquery('simple', $3))
		ORDER BY original_name
		LIMIT $4
	`, fileColumns, r.tables.Files)

	return r.queryFiles(ctx, "search files", query, opts.OwnerID, postgres.ContainsPattern(opts.Query), opts.Query, opts.Limit)
}

// Update updates a file
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, original_name = $2, is_shared = $3, share_id = $4, deleted_at = $5, updated_at = $6
		WHERE id = $7
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		file.FolderID,
		file.OriginalName,
		file.IsShared,
		file.ShareID,
		file.DeletedAt,
		file.UpdatedAt,
		file.ID,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", file.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("update file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}

	return nil
}

// MarkDeleted stamps deletedAt on every listed file that is currently active
func (r *PostgresFileRepository) MarkDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = $2, updated_at = NOW()
		WHERE id = ANY($1) AND deleted_at IS NULL
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, deletedAt); err != nil {
		return fmt.Errorf("mark files deleted: %w", err)
	}
	return nil
}

// ClearDeleted clears deletedAt on every listed file stamped with deletedAt
func (r *PostgresFileRepository) ClearDeleted(ctx context.Context, ids []string, deletedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE %s SET deleted_at = NULL, updated_at = NOW()
		WHERE id = ANY($1) AND deleted_at = $2
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids, deletedAt); err != nil {
		return fmt.Errorf("restore files: %w", err)
	}
	return nil
}

// DeleteMany permanently removes the listed file records
func (r *PostgresFileRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete files: %w", err)
	}
	return nil
}

func (r *PostgresFileRepository) queryFiles(ctx context.Context, op, query string, args ...any) ([]models.File, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return []models.File{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		files = append(files, *file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return files, nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.FolderID,
		&f.Name,
		&f.OriginalName,
		&f.StorageKey,
		&f.StorageProvider,
		&f.MimeType,
		&f.Size,
		&f.Checksum,
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
