package drive

import (
	"context"
	"io"

	"cloudvault/internal/domain/models/drive"
)

// FileService handles file uploads, downloads and lifecycle.
type FileService interface {
	// UploadFile stores bytes through the default provider, then records metadata
	UploadFile(ctx context.Context, req *UploadFileRequest) (*drive.File, error)

	// GetFile returns an active file's metadata
	GetFile(ctx context.Context, ownerID, fileID string) (*drive.File, error)

	// DownloadFile opens an active file's bytes via the provider it was stored with.
	// The caller must close the reader.
	DownloadFile(ctx context.Context, ownerID, fileID string) (*drive.File, io.ReadCloser, error)

	// UpdateFile renames and/or moves a file
	UpdateFile(ctx context.Context, ownerID, fileID string, req *UpdateFileRequest) (*drive.File, error)

	// SoftDeleteFile trashes a file
	SoftDeleteFile(ctx context.Context, ownerID, fileID string) error

	// RestoreFile restores a trashed file whose folder is active
	RestoreFile(ctx context.Context, ownerID, fileID string) (*drive.File, error)

	// PermanentDeleteFile purges a trashed file and (best-effort) its stored bytes
	PermanentDeleteFile(ctx context.Context, ownerID, fileID string) error
}

// UploadFileRequest carries one upload. Content is streamed to the provider.
type UploadFileRequest struct {
	OwnerID      string
	FolderID     string
	OriginalName string
	MimeType     string // empty or application/octet-stream triggers sniffing
	Content      io.Reader
}

// UpdateFileRequest represents a rename and/or move
type UpdateFileRequest struct {
	OriginalName *string
	FolderID     *string // nil = don't move
}
