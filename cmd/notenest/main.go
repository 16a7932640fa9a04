// NoteNest - family note-taking service
//
// NoteNest is a small self-hosted note service for families. Children own
// notes (plain text or checklists, with folders and tags); parents link to
// one child via a shareable family code and get read-only access to that
// child's notes. Authentication uses short-lived JWT access tokens backed
// by server-validated refresh tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/notenest/notenest/migrations"

	"github.com/notenest/notenest/internal/api"
	"github.com/notenest/notenest/internal/audit"
	"github.com/notenest/notenest/internal/auth"
	"github.com/notenest/notenest/internal/infrastructure/config"
	"github.com/notenest/notenest/internal/infrastructure/database"
	"github.com/notenest/notenest/internal/infrastructure/logging"
	"github.com/notenest/notenest/internal/notes"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so every exit
// path flows through one error return.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting NoteNest", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", db.Path())

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database migrations complete")

	// Services
	accounts := auth.NewService(
		auth.NewChildRepository(db.DB),
		auth.NewParentRepository(db.DB),
		auth.ServiceConfig{
			JWTSecret:       cfg.Auth.JWTSecret,
			AccessTokenTTL:  cfg.AccessTokenLifetime(),
			RefreshTokenTTL: cfg.RefreshTokenLifetime(),
		},
		log,
	)
	noteService := notes.NewService(notes.NewRepository(db.DB), log)
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// HTTP API
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Accounts: accounts,
		Notes:    noteService,
		Audit:    auditRepo,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("NoteNest ready", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Block until interrupted
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

// getConfigPath returns the config file path from the environment or the default.
func getConfigPath() string {
	if path := os.Getenv("NOTENEST_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
