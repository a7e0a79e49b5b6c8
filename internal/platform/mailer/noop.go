package mailer

import (
	"context"
	"log/slog"

	"github.com/phrazzld/contacts-api/internal/platform/logger"
)

// NoopMailer stands in when no SMTP relay is configured. It only logs.
type NoopMailer struct {
	logger *slog.Logger
}

var _ Mailer = (*NoopMailer)(nil)

// NewNoopMailer creates a NoopMailer.
func NewNoopMailer(logger *slog.Logger) *NoopMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopMailer{logger: logger.With(slog.String("component", "noop_mailer"))}
}

// SendVerification implements Mailer.
func (m *NoopMailer) SendVerification(ctx context.Context, v Verification) error {
	log := logger.FromContextOrDefault(ctx, m.logger)
	log.Info("email delivery not configured, would send verification email")
	log.Debug("verification link", slog.String("link", v.Link))
	return nil
}
