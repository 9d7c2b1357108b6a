// Package repository opens the configured entity store backend.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"cloudvault/internal/config"
	"cloudvault/internal/domain/repositories"
	driveRepo "cloudvault/internal/domain/repositories/drive"
	"cloudvault/internal/repository/badger"
	"cloudvault/internal/repository/postgres"
	postgresDrive "cloudvault/internal/repository/postgres/drive"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store bundles the repositories of whichever backend is configured.
type Store struct {
	Folders   driveRepo.FolderRepository
	Files     driveRepo.FileRepository
	TxManager repositories.TransactionManager

	// Pool and Tables are set only for the postgres driver
	Pool   *pgxpool.Pool
	Tables *postgres.TableNames

	close func() error
}

// Close releases the backend's connections or files.
func (s *Store) Close() error {
	return s.close()
}

// Open connects to the backend named by cfg.Database.Driver. With
// auto_migrate set, the postgres schema is ensured before returning.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	case "badger":
		return openBadger(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if cfg.Database.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("schema ensured", "table_prefix", cfg.TablePrefix)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	logger.Info("database connected", "driver", "postgres", "table_prefix", cfg.TablePrefix)

	return &Store{
		Folders:   postgresDrive.NewFolderRepository(repoConfig),
		Files:     postgresDrive.NewFileRepository(repoConfig),
		TxManager: postgres.NewTransactionManager(pool, logger),
		Pool:      pool,
		Tables:    tables,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

func openBadger(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	store, err := badger.Open(cfg.Database.BadgerPath, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.BadgerPath == "" {
		logger.Warn("badger running in memory; data is lost on exit")
	}
	logger.Info("database opened", "driver", "badger", "path", cfg.Database.BadgerPath)

	return &Store{
		Folders:   badger.NewFolderRepository(store),
		Files:     badger.NewFileRepository(store),
		TxManager: store.TransactionManager(),
		close:     store.Close,
	}, nil
}
