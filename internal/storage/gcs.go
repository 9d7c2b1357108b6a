package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"cloudvault/internal/config"
)

// GCSProvider stores bytes in a Google Cloud Storage bucket. An object only
// becomes visible once its writer closes successfully.
type GCSProvider struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewGCSProvider builds a client from cfg. Without a credentials file the
// client uses Application Default Credentials. An explicit endpoint (e.g.
// fake-gcs-server) disables authentication.
func NewGCSProvider(ctx context.Context, cfg config.GCSStorageConfig, logger *slog.Logger) (*GCSProvider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	return NewGCSProviderWithClient(client, cfg.Bucket, logger), nil
}

// NewGCSProviderWithClient wraps an existing client.
func NewGCSProviderWithClient(client *storage.Client, bucket string, logger *slog.Logger) *GCSProvider {
	return &GCSProvider{client: client, bucket: bucket, logger: logger}
}

func (p *GCSProvider) Kind() Kind { return KindGCS }

func (p *GCSProvider) GenerateKey(originalName, ownerID string) string {
	return GenerateKey(originalName, ownerID)
}

func (p *GCSProvider) Upload(ctx context.Context, originalName string, content io.Reader, mimeType, ownerID string) (*UploadResult, error) {
	key := p.GenerateKey(originalName, ownerID)

	// Cancelling the writer's context aborts the upload without committing an object
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := p.client.Bucket(p.bucket).Object(key).NewWriter(writeCtx)
	w.ContentType = mimeType

	measured := newMeasuringReader(content)
	if _, err := io.Copy(w, measured); err != nil {
		cancel()
		w.Close()
		return nil, backendError("upload", KindGCS, key, err)
	}
	if err := w.Close(); err != nil {
		return nil, backendError("upload", KindGCS, key, err)
	}

	return measured.result(key), nil
}

func (p *GCSProvider) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := p.client.Bucket(p.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, p.mapError("download", key, err)
	}
	return r, nil
}

func (p *GCSProvider) Delete(ctx context.Context, key string) error {
	if err := p.client.Bucket(p.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return backendError("delete", KindGCS, key, err)
	}
	return nil
}

func (p *GCSProvider) Exists(ctx context.Context, key string) bool {
	_, err := p.client.Bucket(p.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotExist) {
			p.logger.Warn("storage exists check failed", "provider", KindGCS, "key", key, "error", err)
		}
		return false
	}
	return true
}

// Close releases the underlying client.
func (p *GCSProvider) Close() error {
	return p.client.Close()
}

func (p *GCSProvider) mapError(op, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return notFound(op, KindGCS, key)
	}
	return backendError(op, KindGCS, key, err)
}
