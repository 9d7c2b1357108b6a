package drive

import (
	"context"
	"io"

	"cloudvault/internal/domain/models/drive"
)

// ShareService issues and revokes public share tokens.
//
// Repeated Share calls return the existing token; only Unshare followed by
// Share produces a new one.
type ShareService interface {
	Share(ctx context.Context, ownerID string, kind drive.ShareKind, id string) (*drive.ShareLink, error)
	Unshare(ctx context.Context, ownerID string, kind drive.ShareKind, id string) error
}

// PublicGateway is the unauthenticated, read-only projection of one share root.
// Every failure to find or reach an entity is reported as ErrNotFound, whether
// the token was revoked, never issued, or the target lies outside the share.
type PublicGateway interface {
	// Resolve looks the token up against folders first, then files
	Resolve(ctx context.Context, token string) (*drive.ShareTarget, error)

	// ListShared lists the share root, or folderID inside it
	ListShared(ctx context.Context, token string, folderID *string) (*drive.PublicListing, error)

	// DownloadShared opens a shared file (fileID nil) or a file inside a shared folder.
	// The caller must close the reader.
	DownloadShared(ctx context.Context, token string, fileID *string) (*drive.File, io.ReadCloser, error)
}
