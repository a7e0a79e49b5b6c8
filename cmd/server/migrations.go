package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/postgres"
)

type migrationOptions struct {
	db *sql.DB
}

type migrationOption func(*migrationOptions)

// withDB reuses an open pool instead of opening a dedicated connection.
func withDB(db *sql.DB) migrationOption {
	return func(o *migrationOptions) { o.db = db }
}

// runMigrationCommand executes a goose command against the configured database.
func runMigrationCommand(
	ctx context.Context,
	cfg *config.Config,
	command string,
	logger *slog.Logger,
	opts ...migrationOption,
) error {
	switch command {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion:
	default:
		return fmt.Errorf("unsupported migration command %q", command)
	}

	// One correlation ID ties together every log line of the operation.
	log := logger.With(
		"correlation_id", uuid.New().String(),
		"component", "migrations",
		"command", command,
	)

	var o migrationOptions
	for _, opt := range opts {
		opt(&o)
	}

	db := o.db
	if db == nil {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database URL is empty: check your configuration")
		}
		var err error
		db, err = sql.Open("pgx", cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to open database connection: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Warn("failed to close migration connection", "error", err)
			}
		}()
	}

	log.Info("Starting migration operation",
		"url", maskDatabaseURL(cfg.Database.URL),
		"host", extractHostFromURL(cfg.Database.URL))

	start := time.Now()
	if err := postgres.Migrate(ctx, db, command, log); err != nil {
		log.Error("Migration failed",
			"error", err,
			"duration", time.Since(start))
		return err
	}

	log.Info("Migration completed", "duration", time.Since(start))
	return nil
}

// maskDatabaseURL hides the password of a database URL for logging.
func maskDatabaseURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}

	if parsedURL.User != nil {
		if _, hasPassword := parsedURL.User.Password(); hasPassword {
			parsedURL.User = url.UserPassword(parsedURL.User.Username(), "****")
			return parsedURL.String()
		}
	}
	return dbURL
}

// extractHostFromURL returns host[:port] of a database URL, or "unknown".
func extractHostFromURL(dbURL string) string {
	parsedURL, err := url.Parse(dbURL)
	if err != nil || parsedURL.Host == "" {
		return "unknown"
	}
	return parsedURL.Host
}
