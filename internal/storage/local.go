package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider stores bytes under a base directory on local disk.
//
// Uploads are written to a temp file in the destination directory and renamed
// into place, so readers never observe a partial file. A crash between
// create and rename leaves an orphaned ".upload-*" temp file behind; nothing
// reclaims it automatically.
type LocalProvider struct {
	basePath string
	logger   *slog.Logger
}

// NewLocalProvider creates basePath if needed and returns a provider rooted there.
func NewLocalProvider(basePath string, logger *slog.Logger) (*LocalProvider, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create storage base path: %w", err)
	}
	return &LocalProvider{basePath: abs, logger: logger}, nil
}

func (p *LocalProvider) Kind() Kind { return KindLocal }

func (p *LocalProvider) GenerateKey(originalName, ownerID string) string {
	return GenerateKey(originalName, ownerID)
}

func (p *LocalProvider) Upload(ctx context.Context, originalName string, content io.Reader, mimeType, ownerID string) (*UploadResult, error) {
	key := p.GenerateKey(originalName, ownerID)
	fullPath, err := p.resolve(key)
	if err != nil {
		return nil, backendError("upload", KindLocal, key, err)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, backendError("upload", KindLocal, key, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, backendError("upload", KindLocal, key, err)
	}
	tmpName := tmp.Name()

	measured := newMeasuringReader(content)
	_, copyErr := io.Copy(tmp, &contextReader{ctx: ctx, r: measured})
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmpName)
		return nil, backendError("upload", KindLocal, key, err)
	}

	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return nil, backendError("upload", KindLocal, key, err)
	}

	return measured.result(key), nil
}

func (p *LocalProvider) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := p.resolve(key)
	if err != nil {
		return nil, backendError("download", KindLocal, key, err)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound("download", KindLocal, key)
		}
		return nil, backendError("download", KindLocal, key, err)
	}
	return f, nil
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	fullPath, err := p.resolve(key)
	if err != nil {
		return backendError("delete", KindLocal, key, err)
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return backendError("delete", KindLocal, key, err)
	}
	return nil
}

func (p *LocalProvider) Exists(ctx context.Context, key string) bool {
	fullPath, err := p.resolve(key)
	if err != nil {
		p.logger.Warn("storage exists check failed", "provider", KindLocal, "key", key, "error", err)
		return false
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("storage exists check failed", "provider", KindLocal, "key", key, "error", err)
		}
		return false
	}
	return info.Mode().IsRegular()
}

// resolve maps a key to a path, refusing anything that escapes basePath.
func (p *LocalProvider) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty storage key")
	}
	fullPath := filepath.Join(p.basePath, filepath.FromSlash(key))
	if !isPathUnderRoot(p.basePath, fullPath) {
		return "", fmt.Errorf("storage key %q escapes base path", key)
	}
	return fullPath, nil
}

func isPathUnderRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
