package drive

import (
	"context"
	"time"

	"cloudvault/internal/domain/models/drive"
)

// FileRepository defines data access operations for file metadata.
type FileRepository interface {
	// Create inserts a new file record
	Create(ctx context.Context, file *drive.File) error

	// GetByID retrieves a file by ID regardless of trash state
	GetByID(ctx context.Context, id string) (*drive.File, error)

	// GetByShareID retrieves a file whose share token matches and is_shared is true
	GetByShareID(ctx context.Context, shareID string) (*drive.File, error)

	// ListByFolder lists files directly inside a folder
	ListByFolder(ctx context.Context, folderID string, includeTrashed bool) ([]drive.File, error)

	// ListByFolders lists files inside any of the folders, in any state
	ListByFolders(ctx context.Context, folderIDs []string) ([]drive.File, error)

	// ListTrashed lists every trashed file of an owner
	ListTrashed(ctx context.Context, ownerID string) ([]drive.File, error)

	// Search finds active files whose original name contains query (case-insensitive)
	Search(ctx context.Context, opts *drive.SearchOptions) ([]drive.File, error)

	// Update persists name, folder, share state and trash marker
	Update(ctx context.Context, file *drive.File) error

	// MarkDeleted stamps deletedAt on every listed file that is currently active
	MarkDeleted(ctx context.Context, ids []string, deletedAt time.Time) error

	// ClearDeleted clears deletedAt on every listed file whose stamp equals deletedAt
	ClearDeleted(ctx context.Context, ids []string, deletedAt time.Time) error

	// DeleteMany permanently removes the listed file records
	DeleteMany(ctx context.Context, ids []string) error
}
