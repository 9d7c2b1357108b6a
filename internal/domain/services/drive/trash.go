package drive

import (
	"context"

	"cloudvault/internal/domain/models/drive"
)

// TrashService exposes the owner's trash.
type TrashService interface {
	// ListTrash lists trash roots (entities trashed by their own delete)
	ListTrash(ctx context.Context, ownerID string) (*drive.TrashListing, error)

	// EmptyTrash permanently deletes every trash root and returns how many were purged
	EmptyTrash(ctx context.Context, ownerID string) (int, error)
}

// SearchService runs name searches over an owner's active entities.
type SearchService interface {
	Search(ctx context.Context, opts *drive.SearchOptions) (*drive.SearchResults, error)
}
