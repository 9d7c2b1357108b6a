package main

import (
	"database/sql"
	"fmt"
	"log"

	"cloudvault/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPathFromEnv())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to drop tables in the prod environment")
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	// Files reference folders, so they go first
	prefix := cfg.TablePrefix
	dropSQL := fmt.Sprintf(`
		DROP TABLE IF EXISTS %sfiles CASCADE;
		DROP TABLE IF EXISTS %sfolders CASCADE;
	`, prefix, prefix)

	if _, err := db.Exec(dropSQL); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}

	fmt.Printf("All tables dropped successfully (prefix: %s)\n", prefix)
}
