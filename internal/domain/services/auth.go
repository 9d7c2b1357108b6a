package services

import (
	"context"

	"cloudvault/internal/domain/models/drive"
)

// ResourceAuthorizer checks if a user can access drive entities.
// Current implementation: ownership-based (user owns the entity).
//
// Services call the authorizer before operating on an entity and reuse the
// entity it returns. Trash state is not checked here; callers decide whether
// a trashed entity is acceptable for the operation.
type ResourceAuthorizer interface {
	// AuthorizeFolder loads a folder and checks the user owns it
	AuthorizeFolder(ctx context.Context, userID, folderID string) (*drive.Folder, error)

	// AuthorizeFile loads a file and checks the user owns it
	AuthorizeFile(ctx context.Context, userID, fileID string) (*drive.File, error)
}
