// Package storage stores file bytes behind one interface with local disk,
// S3-compatible and Google Cloud Storage implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Kind is the provider tag recorded on every file.
type Kind string

const (
	KindLocal Kind = "local"
	KindS3    Kind = "s3"
	KindGCS   Kind = "gcs"
)

// ParseKind resolves a configuration selector (or a stored tag) to a provider
// kind. Empty selects local; "minio" and "google" are aliases.
func ParseKind(selector string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", "local":
		return KindLocal, nil
	case "s3", "minio":
		return KindS3, nil
	case "gcs", "google":
		return KindGCS, nil
	default:
		return "", fmt.Errorf("unknown storage provider %q", selector)
	}
}

// UploadResult describes stored bytes. Size is what the backend actually
// received, not what the caller declared.
type UploadResult struct {
	Key      string
	Size     int64
	Checksum string // xxhash64, 16 hex digits
}

// Provider is the byte storage capability set. Errors crossing this
// interface are normalized: a missing key wraps domain.ErrNotFound, any other
// backend failure is a *domain.StorageError.
type Provider interface {
	// Kind returns the tag stored on files written by this provider
	Kind() Kind

	// GenerateKey returns a fresh key for originalName under ownerID
	GenerateKey(originalName, ownerID string) string

	// Upload stores content under a generated key
	Upload(ctx context.Context, originalName string, content io.Reader, mimeType, ownerID string) (*UploadResult, error)

	// Download opens the bytes stored at key. The caller must close the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key; a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present. Backend errors are logged and reported as false.
	Exists(ctx context.Context, key string) bool
}
