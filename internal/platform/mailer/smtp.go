package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/redact"
	"github.com/wneessen/go-mail"
)

const implicitTLSPort = 465

// sender is the part of *mail.Client used for delivery.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	client   sender
	from     string
	fromName string
	logger   *slog.Logger
}

var _ Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer creates a mailer for the relay described by cfg.
// STARTTLS is required unless the relay listens on the implicit TLS port.
func NewSMTPMailer(cfg config.MailConfig, logger *slog.Logger) (*SMTPMailer, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("mail server and sender address are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second),
	}
	if cfg.Port == implicitTLSPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return newSMTPMailer(client, cfg.From, cfg.FromName, logger), nil
}

func newSMTPMailer(client sender, from, fromName string, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		client:   client,
		from:     from,
		fromName: fromName,
		logger:   logger.With(slog.String("component", "smtp_mailer")),
	}
}

// SendVerification implements Mailer.
func (m *SMTPMailer) SendVerification(ctx context.Context, v Verification) error {
	log := logger.FromContextOrDefault(ctx, m.logger)

	msg, err := m.buildVerification(v)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		log.Warn("verification email delivery failed",
			slog.String("error", redact.Error(err)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	log.Info("verification email sent", slog.Duration("duration", time.Since(start)))
	return nil
}

func (m *SMTPMailer) buildVerification(v Verification) (*mail.Msg, error) {
	body, err := renderVerification(v)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.AddToFormat(v.Name, v.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(VerificationSubject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	msg.AddAlternativeString(mail.TypeTextPlain,
		fmt.Sprintf("Hello %s,\n\nConfirm your email by opening this link:\n%s\n", v.Name, v.Link))
	return msg, nil
}
