package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/redact"
)

// VerifyPath is the route prefix that verification links point to.
const VerifyPath = "/api/contacts/verify/"

// TokenIssuer creates the token embedded in a verification link.
type TokenIssuer interface {
	GenerateEmailToken(ctx context.Context, email string) (string, error)
}

// Dispatcher sends verification emails in the background so that request
// handlers never wait on the mail relay. Failures are logged and counted.
type Dispatcher struct {
	mailer    Mailer
	tokens    TokenIssuer
	publicURL string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Set

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil metrics set disables counting.
func NewDispatcher(
	m Mailer,
	tokens TokenIssuer,
	publicURL string,
	timeout time.Duration,
	logger *slog.Logger,
	set *metrics.Set,
) *Dispatcher {
	if m == nil {
		panic("mailer cannot be nil")
	}
	if tokens == nil {
		panic("token issuer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		mailer:    m,
		tokens:    tokens,
		publicURL: strings.TrimRight(publicURL, "/"),
		timeout:   timeout,
		logger:    logger.With(slog.String("component", "email_dispatcher")),
		metrics:   set,
	}
}

// SendVerification queues a verification email to email. It returns
// immediately; the send outlives the request context but not the timeout.
func (d *Dispatcher) SendVerification(ctx context.Context, email, name string) {
	log := logger.FromContextOrDefault(ctx, d.logger)
	bg := logger.WithLogger(context.WithoutCancel(ctx), log)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic while sending verification email", slog.Any("panic", r))
				d.count("failed")
			}
		}()

		sendCtx, cancel := context.WithTimeout(bg, d.timeout)
		defer cancel()

		if err := d.send(sendCtx, email, name); err != nil {
			log.Warn("verification email not sent", slog.String("error", redact.Error(err)))
			d.count("failed")
			return
		}
		d.count("sent")
	}()
}

// Wait blocks until every queued email has been handled or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VerificationLink returns the absolute link that confirms token.
func (d *Dispatcher) VerificationLink(token string) string {
	return d.publicURL + VerifyPath + url.PathEscape(token)
}

func (d *Dispatcher) send(ctx context.Context, email, name string) error {
	token, err := d.tokens.GenerateEmailToken(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return d.mailer.SendVerification(ctx, Verification{
		Email: email,
		Name:  name,
		Link:  d.VerificationLink(token),
	})
}

func (d *Dispatcher) count(result string) {
	if d.metrics == nil {
		return
	}
	d.metrics.GetOrCreateCounter(fmt.Sprintf(`verification_emails_total{result=%q}`, result)).Inc()
}
