package drive

import (
	"context"
	"time"

	"cloudvault/internal/domain/models/drive"
)

// FolderRepository defines data access operations for folders.
// Lookups by id return trashed folders too; listing methods say which state they return.
type FolderRepository interface {
	// Create inserts a new folder (ID and timestamps set by the caller)
	Create(ctx context.Context, folder *drive.Folder) error

	// GetByID retrieves a folder by ID regardless of trash state
	GetByID(ctx context.Context, id string) (*drive.Folder, error)

	// GetByShareID retrieves a folder whose share token matches and is_shared is true
	GetByShareID(ctx context.Context, shareID string) (*drive.Folder, error)

	// ListChildren lists immediate child folders (parentID nil = root level).
	// includeTrashed=false returns only active folders.
	ListChildren(ctx context.Context, ownerID string, parentID *string, includeTrashed bool) ([]drive.Folder, error)

	// FindActiveByName finds an active sibling with the given name
	FindActiveByName(ctx context.Context, ownerID string, parentID *string, name string) (*drive.Folder, error)

	// ListTrashed lists every trashed folder of an owner
	ListTrashed(ctx context.Context, ownerID string) ([]drive.Folder, error)

	// Search finds active folders whose name contains query (case-insensitive)
	Search(ctx context.Context, opts *drive.SearchOptions) ([]drive.Folder, error)

	// Update persists name, parent, path, share state and trash marker
	Update(ctx context.Context, folder *drive.Folder) error

	// MarkDeleted stamps deletedAt on every listed folder that is currently active
	MarkDeleted(ctx context.Context, ids []string, deletedAt time.Time) error

	// ClearDeleted clears deletedAt on every listed folder whose stamp equals deletedAt
	ClearDeleted(ctx context.Context, ids []string, deletedAt time.Time) error

	// DeleteMany permanently removes the listed folders
	DeleteMany(ctx context.Context, ids []string) error
}
