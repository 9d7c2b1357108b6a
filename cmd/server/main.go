package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloudvault/internal/auth"
	"cloudvault/internal/config"
	"cloudvault/internal/handler"
	"cloudvault/internal/middleware"
	"cloudvault/internal/repository"
	authSvc "cloudvault/internal/service/auth"
	serviceDrive "cloudvault/internal/service/drive"
	"cloudvault/internal/storage"
	"cloudvault/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	configPath := flag.String("config", config.ConfigPathFromEnv(), "path to an optional config file (yaml, json or toml)")
	flag.Parse()

	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"database", cfg.Database.Driver,
		"storage", cfg.Storage.Provider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jwtVerifier, err := auth.NewVerifierFromConfig(cfg.Auth, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open entity store: %v", err)
	}
	defer store.Close()

	emitter := telemetry.NewSlogEmitter(logger)

	registry, err := storage.NewRegistry(ctx, cfg.Storage, logger, emitter)
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}
	defer registry.Close()

	// Services
	authorizer := authSvc.NewOwnerBasedAuthorizer(store.Folders, store.Files)
	folderService := serviceDrive.NewFolderService(store.Folders, store.Files, store.TxManager, authorizer, registry, emitter, logger)
	fileService := serviceDrive.NewFileService(store.Folders, store.Files, store.TxManager, authorizer, registry, emitter, logger)
	shareService := serviceDrive.NewShareService(store.Folders, store.Files, authorizer, emitter, logger)
	trashService := serviceDrive.NewTrashService(store.Folders, store.Files, store.TxManager, registry, emitter, logger)
	searchService := serviceDrive.NewSearchService(store.Folders, store.Files)
	publicGateway := serviceDrive.NewPublicGateway(store.Folders, store.Files, registry, emitter, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Handlers{
		Folders: handler.NewFolderHandler(folderService, logger),
		Files:   handler.NewFileHandler(fileService, cfg.Upload.MaxBytes, logger),
		Shares:  handler.NewShareHandler(shareService, logger),
		Trash:   handler.NewTrashHandler(trashService, searchService, logger),
		Public:  handler.NewPublicHandler(publicGateway, logger),
	})

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition", "Content-Length"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // Disabled so large downloads are not cut off
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
