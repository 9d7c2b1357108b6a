package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"io"
	"log"
	"os"

	"cloudvault/internal/config"
	"cloudvault/internal/repository"
	"cloudvault/internal/repository/postgres"
	"cloudvault/internal/seed"
	authSvc "cloudvault/internal/service/auth"
	serviceDrive "cloudvault/internal/service/drive"
	"cloudvault/internal/storage"
	"cloudvault/internal/telemetry"

	"github.com/joho/godotenv"
)

//go:embed demo.yaml
var demoManifest []byte

func main() {
	// Parse command-line flags
	configPath := flag.String("config", config.ConfigPathFromEnv(), "path to an optional config file")
	manifestPath := flag.String("manifest", "", "YAML manifest to seed (default: built-in demo tree)")
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	clearData := flag.Bool("clear-data", false, "Clear all folders and files (keep schema)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.IsProduction() && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger, logCloser, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	ctx := context.Background()

	// Schema is managed explicitly below
	cfg.Database.AutoMigrate = false
	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open entity store: %v", err)
	}
	defer store.Close()

	if store.Pool != nil {
		if *dropTables {
			log.Println("Dropping all tables...")
			if err := postgres.DropSchema(ctx, store.Pool, store.Tables); err != nil {
				log.Fatalf("Failed to drop tables: %v", err)
			}
		}

		log.Println("Ensuring database schema is up to date...")
		if err := postgres.EnsureSchema(ctx, store.Pool, store.Tables, cfg.TablePrefix); err != nil {
			log.Fatalf("Failed to run schema: %v", err)
		}

		if *clearData {
			if err := postgres.TruncateData(ctx, store.Pool, store.Tables); err != nil {
				log.Fatalf("Failed to clear data: %v", err)
			}
			log.Println("Data cleared")
			return
		}
	} else if *dropTables || *clearData || *schemaOnly {
		log.Printf("Schema flags only apply to the postgres driver (driver: %s)", cfg.Database.Driver)
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	manifest, err := loadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	registry, err := storage.NewRegistry(ctx, cfg.Storage, logger, telemetry.NewSlogEmitter(logger))
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}
	defer registry.Close()

	authorizer := authSvc.NewOwnerBasedAuthorizer(store.Folders, store.Files)
	seeder := seed.NewSeeder(
		serviceDrive.NewFolderService(store.Folders, store.Files, store.TxManager, authorizer, registry, nil, logger),
		serviceDrive.NewFileService(store.Folders, store.Files, store.TxManager, authorizer, registry, nil, logger),
		serviceDrive.NewShareService(store.Folders, store.Files, authorizer, nil, logger),
		logger,
	)

	log.Printf("Seeding tree for owner %s (environment: %s)", manifest.Owner, cfg.Environment)
	result, err := seeder.Apply(ctx, manifest)
	if err != nil {
		log.Fatalf("Seeding failed after %d folders and %d files: %v", result.Folders, result.Files, err)
	}

	log.Printf("Seeding complete: %d folders, %d files", result.Folders, result.Files)
	for name, token := range result.Links {
		log.Printf("  share link %s -> /api/public/%s", name, token)
	}
}

func loadManifest(path string) (*seed.Manifest, error) {
	var r io.Reader = bytes.NewReader(demoManifest)
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return seed.ParseManifest(r)
}
