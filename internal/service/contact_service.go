package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/redact"
	"github.com/phrazzld/contacts-api/internal/service/auth"
	"github.com/phrazzld/contacts-api/internal/store"
)

const defaultAvatarTimeout = 15 * time.Second

// AvatarUploader stores a contact's avatar and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, contactID int64, r io.Reader) (string, error)
}

// VerificationSender queues a verification email. It must not block on delivery.
type VerificationSender interface {
	SendVerification(ctx context.Context, email, name string)
}

// EmailTokenValidator checks verification tokens.
type EmailTokenValidator interface {
	ValidateEmailToken(ctx context.Context, token string) (*auth.Claims, error)
}

// ContactService provides contact-related operations
type ContactService interface {
	// CreateContact validates and stores a new contact. A non-nil avatar is
	// uploaded afterwards on a best-effort basis.
	CreateContact(ctx context.Context, in domain.ContactInput, avatar io.Reader) (*domain.Contact, error)

	// GetContact retrieves a contact by its ID
	GetContact(ctx context.Context, id int64) (*domain.Contact, error)

	// ListContacts returns a page of contacts ordered by ID
	ListContacts(ctx context.Context, skip, limit int) ([]*domain.Contact, error)

	// SearchContacts matches query against first name, last name and email
	SearchContacts(ctx context.Context, query string) ([]*domain.Contact, error)

	// UpdateContact applies patch atomically. Fields left nil keep their values.
	UpdateContact(ctx context.Context, id int64, patch domain.ContactPatch, avatar io.Reader) (*domain.Contact, error)

	// DeleteContact removes a contact and returns it
	DeleteContact(ctx context.Context, id int64) (*domain.Contact, error)

	// UpcomingBirthdays lists contacts celebrating within the next week
	UpcomingBirthdays(ctx context.Context) ([]*domain.Contact, error)

	// AttachAvatar uploads r as the avatar of c and reports whether it was stored.
	// Failures are logged, never returned.
	AttachAvatar(ctx context.Context, c *domain.Contact, r io.Reader) bool

	// RequestEmailVerification sends a new verification email to the contact.
	RequestEmailVerification(ctx context.Context, id int64) (*domain.Contact, error)

	// VerifyEmail confirms the email named by token.
	VerifyEmail(ctx context.Context, token string) (*domain.Contact, error)
}

// Option configures a ContactService.
type Option func(*contactServiceImpl)

// WithClock replaces the clock used for validation and birthday lookups.
func WithClock(now func() time.Time) Option {
	return func(s *contactServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAvatarTimeout bounds each avatar upload.
func WithAvatarTimeout(d time.Duration) Option {
	return func(s *contactServiceImpl) {
		if d > 0 {
			s.avatarTimeout = d
		}
	}
}

// contactServiceImpl implements the ContactService interface
type contactServiceImpl struct {
	contacts      store.ContactStore
	runInTx       store.Transactor
	uploader      AvatarUploader
	verifier      VerificationSender
	tokens        EmailTokenValidator
	logger        *slog.Logger
	now           func() time.Time
	avatarTimeout time.Duration
}

// NewContactService creates a new ContactService.
// It returns an error if any of the required dependencies are nil.
func NewContactService(
	contacts store.ContactStore,
	runInTx store.Transactor,
	uploader AvatarUploader,
	verifier VerificationSender,
	tokens EmailTokenValidator,
	logger *slog.Logger,
	opts ...Option,
) (ContactService, error) {
	deps := []struct {
		name string
		nil  bool
	}{
		{"contacts", contacts == nil},
		{"runInTx", runInTx == nil},
		{"uploader", uploader == nil},
		{"verifier", verifier == nil},
		{"tokens", tokens == nil},
	}
	for _, d := range deps {
		if d.nil {
			return nil, &ContactServiceError{
				Operation: "create_service",
				Message:   d.name + " cannot be nil",
			}
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &contactServiceImpl{
		contacts:      contacts,
		runInTx:       runInTx,
		uploader:      uploader,
		verifier:      verifier,
		tokens:        tokens,
		logger:        logger.With("component", "contact_service"),
		now:           time.Now,
		avatarTimeout: defaultAvatarTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateContact implements ContactService.
func (s *contactServiceImpl) CreateContact(
	ctx context.Context,
	in domain.ContactInput,
	avatar io.Reader,
) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contact, err := domain.NewContact(in, s.now())
	if err != nil {
		log.Debug("contact rejected", "error", err)
		return nil, err
	}

	if err := s.contacts.Create(ctx, contact); err != nil {
		err = NewContactServiceError("create", "failed to save contact", err)
		s.logFailure(log, "create", 0, err)
		return nil, err
	}

	if avatar != nil {
		s.AttachAvatar(ctx, contact, avatar)
	}
	s.verifier.SendVerification(ctx, contact.Email, contact.FullName())

	log.Info("contact created", "contact_id", contact.ID)
	return contact, nil
}

// GetContact implements ContactService.
func (s *contactServiceImpl) GetContact(ctx context.Context, id int64) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contact, err := s.contacts.GetByID(ctx, id)
	if err != nil {
		err = NewContactServiceError("read", "failed to retrieve contact", err)
		s.logFailure(log, "read", id, err)
		return nil, err
	}
	return contact, nil
}

// ListContacts implements ContactService.
func (s *contactServiceImpl) ListContacts(ctx context.Context, skip, limit int) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if skip < 0 {
		return nil, domain.NewValidationError("skip", "must be a non-negative integer", domain.ErrInvalidFormat)
	}
	if limit < 0 {
		return nil, domain.NewValidationError("limit", "must be a non-negative integer", domain.ErrInvalidFormat)
	}

	contacts, err := s.contacts.List(ctx, skip, limit)
	if err != nil {
		err = NewContactServiceError("list", "failed to list contacts", err)
		s.logFailure(log, "list", 0, err)
		return nil, err
	}
	return contacts, nil
}

// SearchContacts implements ContactService.
func (s *contactServiceImpl) SearchContacts(ctx context.Context, query string) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contacts, err := s.contacts.Search(ctx, query)
	if err != nil {
		err = NewContactServiceError("search", "failed to search contacts", err)
		s.logFailure(log, "search", 0, err)
		return nil, err
	}
	log.Debug("contacts searched", "matches", len(contacts))
	return contacts, nil
}

// UpdateContact implements ContactService.
// The row is locked while the patch is merged and validated, so concurrent
// partial updates never overwrite each other's fields.
func (s *contactServiceImpl) UpdateContact(
	ctx context.Context,
	id int64,
	patch domain.ContactPatch,
	avatar io.Reader,
) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		updated      *domain.Contact
		emailChanged bool
	)
	err := s.runInTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txContacts := s.contacts.WithTx(tx)

		contact, err := txContacts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = contact
			return nil
		}

		emailChanged = patch.Apply(contact)
		if err := contact.Validate(s.now()); err != nil {
			return err
		}
		if err := txContacts.Update(ctx, contact); err != nil {
			return err
		}
		updated = contact
		return nil
	})
	if err != nil {
		err = NewContactServiceError("update", "failed to update contact", err)
		s.logFailure(log, "update", id, err)
		return nil, err
	}

	if avatar != nil {
		s.AttachAvatar(ctx, updated, avatar)
	}
	if emailChanged {
		s.verifier.SendVerification(ctx, updated.Email, updated.FullName())
	}

	log.Info("contact updated",
		"contact_id", id,
		"email_changed", emailChanged)
	return updated, nil
}

// DeleteContact implements ContactService.
func (s *contactServiceImpl) DeleteContact(ctx context.Context, id int64) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contact, err := s.contacts.Delete(ctx, id)
	if err != nil {
		err = NewContactServiceError("delete", "failed to delete contact", err)
		s.logFailure(log, "delete", id, err)
		return nil, err
	}

	log.Info("contact deleted", "contact_id", id)
	return contact, nil
}

// UpcomingBirthdays implements ContactService.
func (s *contactServiceImpl) UpcomingBirthdays(ctx context.Context) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contacts, err := s.contacts.UpcomingBirthdays(ctx, s.now())
	if err != nil {
		err = NewContactServiceError("birthdays", "failed to look up birthdays", err)
		s.logFailure(log, "birthdays", 0, err)
		return nil, err
	}
	return contacts, nil
}

// AttachAvatar implements ContactService.
func (s *contactServiceImpl) AttachAvatar(ctx context.Context, c *domain.Contact, r io.Reader) bool {
	log := logger.FromContextOrDefault(ctx, s.logger)

	uploadCtx, cancel := context.WithTimeout(ctx, s.avatarTimeout)
	defer cancel()

	url, err := s.uploader.Upload(uploadCtx, c.ID, r)
	if err != nil {
		log.Warn("avatar upload skipped",
			"contact_id", c.ID,
			"error", redact.Error(err))
		return false
	}

	if err := s.contacts.SetAvatarURL(ctx, c.ID, url); err != nil {
		log.Warn("avatar uploaded but not recorded",
			"contact_id", c.ID,
			"error", redact.Error(err))
		return false
	}

	c.AvatarURL = &url
	return true
}

// RequestEmailVerification implements ContactService.
func (s *contactServiceImpl) RequestEmailVerification(ctx context.Context, id int64) (*domain.Contact, error) {
	contact, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	s.verifier.SendVerification(ctx, contact.Email, contact.FullName())
	return contact, nil
}

// VerifyEmail implements ContactService.
func (s *contactServiceImpl) VerifyEmail(ctx context.Context, token string) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	claims, err := s.tokens.ValidateEmailToken(ctx, token)
	if err != nil {
		log.Debug("verification token rejected", "error", err)
		return nil, NewContactServiceError("verify_email", "invalid token", err)
	}

	contact, err := s.contacts.GetByEmail(ctx, claims.Email)
	if err != nil {
		err = NewContactServiceError("verify_email", "failed to find contact by email", err)
		s.logFailure(log, "verify_email", 0, err)
		return nil, err
	}
	// Links stay valid for their whole lifetime; a repeated click is a no-op.
	if contact.EmailVerified {
		log.Debug("email already verified", "contact_id", contact.ID)
		return contact, nil
	}

	verified, err := s.contacts.MarkEmailVerified(ctx, claims.Email)
	if err != nil {
		err = NewContactServiceError("verify_email", "failed to mark email verified", err)
		s.logFailure(log, "verify_email", contact.ID, err)
		return nil, err
	}

	log.Info("email verified", "contact_id", verified.ID)
	return verified, nil
}

// logFailure logs expected outcomes at debug level and everything else as an error.
func (s *contactServiceImpl) logFailure(log *slog.Logger, op string, id int64, err error) {
	attrs := []any{"operation", op, "error", redact.Error(err)}
	if id > 0 {
		attrs = append(attrs, "contact_id", id)
	}

	switch err.(type) {
	case *ContactServiceError:
		log.Error(fmt.Sprintf("contact %s failed", op), attrs...)
	default:
		log.Debug(fmt.Sprintf("contact %s rejected", op), attrs...)
	}
}
