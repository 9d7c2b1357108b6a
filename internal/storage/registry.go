package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"cloudvault/internal/config"
	"cloudvault/internal/telemetry"
)

// Factory builds one provider kind from configuration.
type Factory func(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Provider, error)

// Registry owns the process's providers. The default provider (the one new
// uploads go to) is built eagerly by NewRegistry; other kinds are built on
// first use so files recorded under a previously configured backend stay
// readable. Every instance is memoized for the registry's lifetime.
//
// Factories may block on network I/O, so they never run under mu. Concurrent
// first uses of one kind share a single build.
type Registry struct {
	cfg         config.StorageConfig
	logger      *slog.Logger
	emitter     telemetry.Emitter
	defaultKind Kind
	factories   map[Kind]Factory

	// set once by NewRegistry, read without locking
	defaultProvider Provider

	builds    singleflight.Group
	mu        sync.RWMutex
	providers map[Kind]Provider
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithFactory replaces the factory used for kind.
func WithFactory(kind Kind, factory Factory) RegistryOption {
	return func(r *Registry) {
		r.factories[kind] = factory
	}
}

// NewRegistry resolves the configured default provider and constructs it.
func NewRegistry(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger, emitter telemetry.Emitter, opts ...RegistryOption) (*Registry, error) {
	kind, err := ParseKind(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if emitter == nil {
		emitter = telemetry.Nop{}
	}

	r := &Registry{
		cfg:         cfg,
		logger:      logger,
		emitter:     emitter,
		defaultKind: kind,
		factories:   defaultFactories(),
		providers:   make(map[Kind]Provider),
	}
	for _, opt := range opts {
		opt(r)
	}

	p, err := r.get(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("init default storage provider: %w", err)
	}
	r.defaultProvider = p

	logger.Info("storage provider ready", "provider", kind)
	return r, nil
}

// Default returns the provider new uploads are written to.
func (r *Registry) Default() Provider {
	return r.defaultProvider
}

// Get returns the provider for a stored tag, building it on first use.
func (r *Registry) Get(ctx context.Context, tag string) (Provider, error) {
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, kind)
}

func (r *Registry) get(ctx context.Context, kind Kind) (Provider, error) {
	if p, ok := r.lookup(kind); ok {
		return p, nil
	}

	factory, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("no factory for storage provider %q", kind)
	}

	v, err, _ := r.builds.Do(string(kind), func() (any, error) {
		if p, ok := r.lookup(kind); ok {
			return p, nil
		}

		p, err := factory(ctx, r.cfg, r.logger.With("provider", string(kind)))
		if err != nil {
			return nil, fmt.Errorf("create %s storage provider: %w", kind, err)
		}
		instrumented := Instrument(p, r.emitter)

		r.mu.Lock()
		r.providers[kind] = instrumented
		r.mu.Unlock()
		return instrumented, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Provider), nil
}

func (r *Registry) lookup(kind Kind) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[kind]
	return p, ok
}

// Close releases providers holding client resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for kind, p := range r.providers {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s provider: %w", kind, err))
			}
		}
	}
	return errors.Join(errs...)
}

func defaultFactories() map[Kind]Factory {
	return map[Kind]Factory{
		KindLocal: func(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Provider, error) {
			return NewLocalProvider(cfg.Local.BasePath, logger)
		},
		KindS3: func(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Provider, error) {
			if cfg.S3.Bucket == "" {
				return nil, errors.New("s3 bucket not configured")
			}
			return NewS3Provider(ctx, cfg.S3, logger)
		},
		KindGCS: func(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Provider, error) {
			if cfg.GCS.Bucket == "" {
				return nil, errors.New("gcs bucket not configured")
			}
			return NewGCSProvider(ctx, cfg.GCS, logger)
		},
	}
}
