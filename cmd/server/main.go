// Package main implements the entry point for the Contacts API server,
// which stores contacts in PostgreSQL and serves them over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status, version) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		slog.Error("Contacts API exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, sets up logging and either executes a migration
// command or serves HTTP until SIGINT/SIGTERM.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"avatar_provider", cfg.Avatar.Provider,
		"mail_enabled", cfg.Mail.Enabled())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateCmd != "" {
		return runMigrationCommand(ctx, cfg, migrateCmd, log)
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := runMigrationCommand(ctx, cfg, postgres.MigrateUp, log, withDB(db)); err != nil {
			log.Warn("automatic migration failed, continuing", "error", err)
		}
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		return err
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
