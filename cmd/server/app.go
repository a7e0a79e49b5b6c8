package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/VictoriaMetrics/metrics"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/avatar"
	"github.com/phrazzld/contacts-api/internal/platform/mailer"
	"github.com/phrazzld/contacts-api/internal/platform/postgres"
	"github.com/phrazzld/contacts-api/internal/redact"
	"github.com/phrazzld/contacts-api/internal/service"
	"github.com/phrazzld/contacts-api/internal/service/auth"
	"github.com/phrazzld/contacts-api/internal/store"
)

// application holds the shared dependencies of the server so they can be
// wired once and released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	metrics *metrics.Set

	contactStore   store.ContactStore
	contactService service.ContactService
	dispatcher     *mailer.Dispatcher
}

// newApplication wires stores, auxiliary clients and services.
// Misconfigured optional integrations (mail, avatars) degrade to no-ops
// with a warning instead of aborting startup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.NewSet(),
	}

	authCfg, err := withTokenSecret(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewEmailTokenService(authCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize email token service: %w", err)
	}

	app.contactStore = postgres.NewPostgresContactStore(db, logger)

	var m mailer.Mailer = mailer.NewNoopMailer(logger)
	if cfg.Mail.Enabled() {
		smtp, err := mailer.NewSMTPMailer(cfg.Mail, logger)
		if err != nil {
			logger.Warn("SMTP mailer unavailable, verification emails disabled",
				"error", redact.Error(err))
		} else {
			m = smtp
			logger.Info("SMTP mailer initialized", "server", cfg.Mail.Server, "port", cfg.Mail.Port)
		}
	}
	app.dispatcher = mailer.NewDispatcher(m, tokens, cfg.Server.PublicURL, cfg.Mail.SendTimeout(), logger, app.metrics)

	uploader, err := avatar.New(ctx, cfg.Avatar, logger)
	if err != nil {
		logger.Warn("avatar provider unavailable, uploads disabled",
			"provider", cfg.Avatar.Provider,
			"error", redact.Error(err))
		uploader = avatar.NoopUploader{}
	}

	app.contactService, err = service.NewContactService(
		app.contactStore,
		store.NewTransactor(db),
		uploader,
		app.dispatcher,
		tokens,
		logger,
		service.WithAvatarTimeout(cfg.Avatar.UploadTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize contact service: %w", err)
	}

	return app, nil
}

// withTokenSecret returns cfg with a random signing key when none is
// configured. Verification links then only survive until the next restart.
func withTokenSecret(cfg config.AuthConfig, logger *slog.Logger) (config.AuthConfig, error) {
	if cfg.EmailTokenSecret != "" {
		return cfg, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return cfg, fmt.Errorf("failed to generate email token secret: %w", err)
	}
	cfg.EmailTokenSecret = hex.EncodeToString(key)
	logger.Warn("no email token secret configured, using a per-process key; verification links will not survive a restart")
	return cfg, nil
}

// cleanup waits for queued emails, bounded by ctx.
func (app *application) cleanup(ctx context.Context) {
	if err := app.dispatcher.Wait(ctx); err != nil {
		app.logger.Warn("pending verification emails abandoned", "error", err)
	}
}
