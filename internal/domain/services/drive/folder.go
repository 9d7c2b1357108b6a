package drive

import (
	"context"

	"cloudvault/internal/domain/models/drive"
)

// FolderService handles folder tree operations for one owner.
type FolderService interface {
	// CreateFolder creates a folder at root or under an active parent owned by the caller
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*drive.Folder, error)

	// ListRootFolders lists the caller's active root-level folders
	ListRootFolders(ctx context.Context, ownerID string) ([]drive.Folder, error)

	// GetFolderDetail returns an active folder, its active children and its breadcrumb
	GetFolderDetail(ctx context.Context, ownerID, folderID string) (*drive.FolderDetail, error)

	// UpdateFolder renames and/or moves a folder
	UpdateFolder(ctx context.Context, ownerID, folderID string, req *UpdateFolderRequest) (*drive.Folder, error)

	// SoftDeleteFolder trashes a folder and its whole subtree
	SoftDeleteFolder(ctx context.Context, ownerID, folderID string) error

	// RestoreFolder restores a folder and every descendant trashed by the same delete
	RestoreFolder(ctx context.Context, ownerID, folderID string) (*drive.Folder, error)

	// PermanentDeleteFolder purges a trashed folder, its subtree and the stored bytes of contained files
	PermanentDeleteFolder(ctx context.Context, ownerID, folderID string) error
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	OwnerID  string  `json:"-"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // nil = root
}

// OptionalParent tracks tri-state semantics for a move target.
// Transport-agnostic - handlers map from httputil.OptionalString.
//   - Present=false: don't move
//   - Present=true, Value=nil: move to root
//   - Present=true, Value=&id: move under folder id
type OptionalParent struct {
	Present bool
	Value   *string
}

// UpdateFolderRequest represents a rename and/or move
type UpdateFolderRequest struct {
	Name     *string
	ParentID OptionalParent
}
