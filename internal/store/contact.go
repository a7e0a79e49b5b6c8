package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/contacts-api/internal/domain"
)

// ContactStore persists contacts.
//
// Implementations return ErrContactNotFound for absent rows and
// ErrEmailExists when an email address is already taken.
type ContactStore interface {
	// Create inserts the contact and fills in its ID and timestamps.
	Create(ctx context.Context, contact *domain.Contact) error

	// GetByID returns the contact with the given ID.
	GetByID(ctx context.Context, id int64) (*domain.Contact, error)

	// GetForUpdate returns the contact and locks its row until the
	// surrounding transaction ends. Only meaningful on a store from WithTx.
	GetForUpdate(ctx context.Context, id int64) (*domain.Contact, error)

	// GetByEmail returns the contact owning the email, compared case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.Contact, error)

	// List returns contacts ordered by ID, skipping offset rows and returning
	// at most limit rows.
	List(ctx context.Context, offset, limit int) ([]*domain.Contact, error)

	// Search returns contacts whose first name, last name or email contains
	// the query, case-insensitively, ordered by ID.
	Search(ctx context.Context, query string) ([]*domain.Contact, error)

	// UpcomingBirthdays returns contacts whose next birthday falls within
	// domain.BirthdayWindowDays of today, soonest first.
	UpcomingBirthdays(ctx context.Context, today time.Time) ([]*domain.Contact, error)

	// Update writes every mutable field of an existing contact.
	Update(ctx context.Context, contact *domain.Contact) error

	// SetAvatarURL records the hosted avatar location of a contact.
	SetAvatarURL(ctx context.Context, id int64, url string) error

	// MarkEmailVerified flags the contact owning the email as verified.
	MarkEmailVerified(ctx context.Context, email string) (*domain.Contact, error)

	// Delete removes the contact and returns it as it was.
	Delete(ctx context.Context, id int64) (*domain.Contact, error)

	// WithTx returns a store that runs its queries inside tx.
	WithTx(tx *sql.Tx) ContactStore
}
