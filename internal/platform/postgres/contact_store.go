package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/store"
)

const contactColumns = `id, first_name, last_name, email, phone, birthday,
		extra_info, avatar_url, email_verified, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresContactStore implements the store.ContactStore interface
// using a PostgreSQL database as the storage backend.
type PostgresContactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresContactStore creates a new PostgreSQL implementation of the ContactStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresContactStore(db store.DBTX, logger *slog.Logger) *PostgresContactStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresContactStore{
		db:     db,
		logger: logger.With(slog.String("component", "contact_store")),
	}
}

// Ensure PostgresContactStore implements store.ContactStore interface
var _ store.ContactStore = (*PostgresContactStore)(nil)

// WithTx implements store.ContactStore.WithTx.
func (s *PostgresContactStore) WithTx(tx *sql.Tx) store.ContactStore {
	return &PostgresContactStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ContactStore.Create.
// The database assigns the ID and both timestamps.
func (s *PostgresContactStore) Create(ctx context.Context, contact *domain.Contact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO contacts (first_name, last_name, email, phone, birthday, extra_info, avatar_url, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		domain.DateOf(contact.Birthday),
		nullString(contact.ExtraInfo),
		nullString(contact.AvatarURL),
		contact.EmailVerified,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		err = mapContactError(err)
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("contact email already taken")
			return err
		}
		log.Error("failed to create contact", slog.String("error", err.Error()))
		return wrapError("create", err)
	}

	log.Info("contact created", slog.Int64("contact_id", contact.ID))
	return nil
}

// GetByID implements store.ContactStore.GetByID.
func (s *PostgresContactStore) GetByID(ctx context.Context, id int64) (*domain.Contact, error) {
	return s.getOne(ctx, "get", `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
}

// GetForUpdate implements store.ContactStore.GetForUpdate.
func (s *PostgresContactStore) GetForUpdate(ctx context.Context, id int64) (*domain.Contact, error) {
	return s.getOne(ctx, "lock", `SELECT `+contactColumns+` FROM contacts WHERE id = $1 FOR UPDATE`, id)
}

// GetByEmail implements store.ContactStore.GetByEmail.
func (s *PostgresContactStore) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE LOWER(email) = LOWER($1)`
	contact, err := scanContact(s.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
	if err != nil {
		err = mapContactError(err)
		if errors.Is(err, store.ErrContactNotFound) {
			return nil, err
		}
		log.Error("failed to get contact by email", slog.String("error", err.Error()))
		return nil, wrapError("get_by_email", err)
	}
	return contact, nil
}

// List implements store.ContactStore.List.
func (s *PostgresContactStore) List(ctx context.Context, offset, limit int) ([]*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts ORDER BY id OFFSET $1 LIMIT $2`
	return s.queryMany(ctx, "list", query, offset, limit)
}

// Search implements store.ContactStore.Search.
// LIKE metacharacters in the query match literally.
func (s *PostgresContactStore) Search(ctx context.Context, query string) ([]*domain.Contact, error) {
	pattern := "%" + escapeLike(query) + "%"
	sqlQuery := `SELECT ` + contactColumns + ` FROM contacts
		WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1
		ORDER BY id`
	return s.queryMany(ctx, "search", sqlQuery, pattern)
}

// UpcomingBirthdays implements store.ContactStore.UpcomingBirthdays.
// The query narrows candidates by calendar day; the exact window and the
// ordering are applied in Go so that year ends and leap days are handled
// in one place.
func (s *PostgresContactStore) UpcomingBirthdays(ctx context.Context, today time.Time) ([]*domain.Contact, error) {
	keys := domain.BirthdayWindowKeys(today, domain.BirthdayWindowDays)
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE to_char(birthday, 'MM-DD') = ANY($1)`

	candidates, err := s.queryMany(ctx, "birthdays", query, keys)
	if err != nil {
		return nil, err
	}

	contacts := make([]*domain.Contact, 0, len(candidates))
	for _, c := range candidates {
		if domain.IsUpcomingBirthday(c.Birthday, today, domain.BirthdayWindowDays) {
			contacts = append(contacts, c)
		}
	}
	domain.SortByUpcomingBirthday(contacts, today)
	return contacts, nil
}

// Update implements store.ContactStore.Update.
func (s *PostgresContactStore) Update(ctx context.Context, contact *domain.Contact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE contacts
		SET first_name = $2, last_name = $3, email = $4, phone = $5, birthday = $6,
			extra_info = $7, avatar_url = $8, email_verified = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		contact.ID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		domain.DateOf(contact.Birthday),
		nullString(contact.ExtraInfo),
		nullString(contact.AvatarURL),
		contact.EmailVerified,
	).Scan(&contact.UpdatedAt)
	if err != nil {
		err = mapContactError(err)
		if store.IsNotFoundError(err) || errors.Is(err, store.ErrEmailExists) {
			log.Debug("contact update rejected",
				slog.Int64("contact_id", contact.ID),
				slog.String("reason", err.Error()))
			return err
		}
		log.Error("failed to update contact",
			slog.Int64("contact_id", contact.ID),
			slog.String("error", err.Error()))
		return wrapError("update", err)
	}

	log.Info("contact updated", slog.Int64("contact_id", contact.ID))
	return nil
}

// SetAvatarURL implements store.ContactStore.SetAvatarURL.
func (s *PostgresContactStore) SetAvatarURL(ctx context.Context, id int64, url string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		log.Error("failed to store avatar url",
			slog.Int64("contact_id", id),
			slog.String("error", err.Error()))
		return wrapError("set_avatar", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrContactNotFound); err != nil {
		return wrapError("set_avatar", err)
	}

	log.Debug("avatar url stored", slog.Int64("contact_id", id))
	return nil
}

// MarkEmailVerified implements store.ContactStore.MarkEmailVerified.
func (s *PostgresContactStore) MarkEmailVerified(ctx context.Context, email string) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE contacts SET email_verified = TRUE, updated_at = NOW()
		WHERE LOWER(email) = LOWER($1)
		RETURNING ` + contactColumns
	contact, err := scanContact(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		err = mapContactError(err)
		if errors.Is(err, store.ErrContactNotFound) {
			return nil, err
		}
		log.Error("failed to mark email verified", slog.String("error", err.Error()))
		return nil, wrapError("verify_email", err)
	}

	log.Info("contact email verified", slog.Int64("contact_id", contact.ID))
	return contact, nil
}

// Delete implements store.ContactStore.Delete.
func (s *PostgresContactStore) Delete(ctx context.Context, id int64) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM contacts WHERE id = $1 RETURNING ` + contactColumns
	contact, err := scanContact(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		err = mapContactError(err)
		if errors.Is(err, store.ErrContactNotFound) {
			return nil, err
		}
		log.Error("failed to delete contact",
			slog.Int64("contact_id", id),
			slog.String("error", err.Error()))
		return nil, wrapError("delete", err)
	}

	log.Info("contact deleted", slog.Int64("contact_id", id))
	return contact, nil
}

func (s *PostgresContactStore) getOne(ctx context.Context, op, query string, id int64) (*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	contact, err := scanContact(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		err = mapContactError(err)
		if errors.Is(err, store.ErrContactNotFound) {
			log.Debug("contact not found", slog.Int64("contact_id", id))
			return nil, err
		}
		log.Error("failed to read contact",
			slog.String("operation", op),
			slog.Int64("contact_id", id),
			slog.String("error", err.Error()))
		return nil, wrapError(op, err)
	}
	return contact, nil
}

func (s *PostgresContactStore) queryMany(ctx context.Context, op, query string, args ...any) ([]*domain.Contact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query contacts",
			slog.String("operation", op),
			slog.String("error", err.Error()))
		return nil, wrapError(op, MapError(err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Warn("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	contacts := make([]*domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, store.NewStoreError("contact", op, "failed to scan row", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("contact", op, "failed to iterate rows", err)
	}

	log.Debug("contacts queried",
		slog.String("operation", op),
		slog.Int("count", len(contacts)))
	return contacts, nil
}

// wrapError adds the operation to failures that are not one of the store
// sentinels. Sentinels pass through so callers can keep matching on them.
func wrapError(op string, err error) error {
	if store.IsNotFoundError(err) || store.IsDuplicateError(err) || errors.Is(err, store.ErrInvalidEntity) {
		return err
	}
	return store.NewStoreError("contact", op, "database operation failed", err)
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		c         domain.Contact
		extraInfo sql.NullString
		avatarURL sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Birthday,
		&extraInfo,
		&avatarURL,
		&c.EmailVerified,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Birthday = domain.DateOf(c.Birthday)
	if extraInfo.Valid {
		c.ExtraInfo = &extraInfo.String
	}
	if avatarURL.Valid {
		c.AvatarURL = &avatarURL.String
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes every character of s match literally in a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
