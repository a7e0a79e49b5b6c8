package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/platform/postgres"
	"github.com/phrazzld/contacts-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contactColumns = []string{
	"id", "first_name", "last_name", "email", "phone", "birthday",
	"extra_info", "avatar_url", "email_verified", "created_at", "updated_at",
}

// passthroughConverter lets slice arguments reach sqlmock unchanged, the way
// the pgx driver accepts them.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) {
	return v, nil
}

func newMockStore(t *testing.T, converters ...driver.ValueConverter) (*postgres.PostgresContactStore, sqlmock.Sqlmock) {
	t.Helper()
	var (
		db   *sql.DB
		mock sqlmock.Sqlmock
		err  error
	)
	if len(converters) > 0 {
		db, mock, err = sqlmock.New(sqlmock.ValueConverterOption(converters[0]))
	} else {
		db, mock, err = sqlmock.New()
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return postgres.NewPostgresContactStore(db, nil), mock
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addContactRow(rows *sqlmock.Rows, id int64, email string, birthday time.Time) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return rows.AddRow(id, "Ada", "Lovelace", email, "+44 20 7946 0000", birthday, nil, nil, false, now, now)
}

func TestNewPostgresContactStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { postgres.NewPostgresContactStore(nil, nil) })
}

func TestContactStore_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	info := "met at the conference"

	newContact := func() *domain.Contact {
		return &domain.Contact{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Phone:     "+44 20 7946 0000",
			Birthday:  date(1815, time.December, 10),
			ExtraInfo: &info,
		}
	}

	t.Run("assigns id and timestamps", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO contacts`).
			WithArgs("Ada", "Lovelace", "ada@example.com", "+44 20 7946 0000",
				date(1815, time.December, 10), info, nil, false).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

		c := newContact()
		require.NoError(t, s.Create(ctx, c))
		assert.Equal(t, int64(7), c.ID)
		assert.Equal(t, now, c.CreatedAt)
		assert.Equal(t, now, c.UpdatedAt)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO contacts`).
			WillReturnError(newPgError("23505", "contacts_email_lower_key"))

		err := s.Create(ctx, newContact())
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("driver failure", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`INSERT INTO contacts`).WillReturnError(errors.New("connection refused"))

		err := s.Create(ctx, newContact())
		require.Error(t, err)
		assert.False(t, store.IsDuplicateError(err))

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "contact", storeErr.Entity)
		assert.Equal(t, "create", storeErr.Operation)
	})
}

func TestContactStore_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found with optional columns", func(t *testing.T) {
		s, mock := newMockStore(t)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(contactColumns).AddRow(
			int64(3), "Grace", "Hopper", "grace@example.com", "555-0100",
			date(1906, time.December, 9), nil, "https://img.example.com/3.jpg", true, now, now)
		mock.ExpectQuery(`FROM contacts WHERE id = \$1`).WithArgs(int64(3)).WillReturnRows(rows)

		c, err := s.GetByID(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "Grace", c.FirstName)
		assert.Equal(t, date(1906, time.December, 9), c.Birthday)
		assert.Nil(t, c.ExtraInfo)
		require.NotNil(t, c.AvatarURL)
		assert.Equal(t, "https://img.example.com/3.jpg", *c.AvatarURL)
		assert.True(t, c.EmailVerified)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`FROM contacts WHERE id = \$1`).WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(contactColumns))

		c, err := s.GetByID(ctx, 99)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, store.ErrContactNotFound)
	})
}

func TestContactStore_GetByEmail(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE LOWER\(email\) = LOWER\(\$1\)`).WithArgs("ada@example.com").
		WillReturnRows(addContactRow(sqlmock.NewRows(contactColumns), 1, "ada@example.com", date(1990, 1, 1)))

	c, err := s.GetByEmail(context.Background(), "  ada@example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)
}

func TestContactStore_List(t *testing.T) {
	s, mock := newMockStore(t)
	rows := sqlmock.NewRows(contactColumns)
	addContactRow(rows, 11, "a@example.com", date(1990, 1, 1))
	addContactRow(rows, 12, "b@example.com", date(1991, 2, 2))
	mock.ExpectQuery(`ORDER BY id OFFSET \$1 LIMIT \$2`).WithArgs(10, 2).WillReturnRows(rows)

	contacts, err := s.List(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, int64(11), contacts[0].ID)
	assert.Equal(t, int64(12), contacts[1].ID)
}

func TestContactStore_ListEmpty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`ORDER BY id OFFSET`).WithArgs(0, 100).WillReturnRows(sqlmock.NewRows(contactColumns))

	contacts, err := s.List(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func TestContactStore_Search(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		pattern string
	}{
		{"plain text", "ada", "%ada%"},
		{"like metacharacters", `50%_off\`, `%50\%\_off\\%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectQuery(`first_name ILIKE \$1 OR last_name ILIKE \$1 OR email ILIKE \$1`).
				WithArgs(tt.pattern).
				WillReturnRows(addContactRow(sqlmock.NewRows(contactColumns), 1, "ada@example.com", date(1990, 1, 1)))

			contacts, err := s.Search(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Len(t, contacts, 1)
		})
	}
}

func TestContactStore_SearchQueryFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`ILIKE`).WillReturnError(errors.New("timeout"))

	contacts, err := s.Search(context.Background(), "x")
	assert.Nil(t, contacts)

	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "search", storeErr.Operation)
	assert.False(t, store.IsNotFoundError(err))
}

func TestContactStore_UpcomingBirthdays(t *testing.T) {
	today := date(2023, time.December, 28)
	s, mock := newMockStore(t, passthroughConverter{})

	rows := sqlmock.NewRows(contactColumns)
	addContactRow(rows, 1, "jan2@example.com", date(1990, time.January, 2))
	addContactRow(rows, 2, "today@example.com", date(1985, time.December, 28))
	addContactRow(rows, 3, "eve@example.com", date(1970, time.December, 31))
	addContactRow(rows, 4, "late@example.com", date(2000, time.January, 5))

	mock.ExpectQuery(`to_char\(birthday, 'MM-DD'\) = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	contacts, err := s.UpcomingBirthdays(context.Background(), today)
	require.NoError(t, err)

	ids := make([]int64, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)
}

func TestContactStore_Update(t *testing.T) {
	ctx := context.Background()
	c := &domain.Contact{
		ID:        5,
		FirstName: "Ada",
		LastName:  "King",
		Email:     "ada@example.com",
		Phone:     "555-0199",
		Birthday:  date(1815, time.December, 10),
	}

	t.Run("refreshes updated_at", func(t *testing.T) {
		s, mock := newMockStore(t)
		updated := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`UPDATE contacts`).
			WithArgs(int64(5), "Ada", "King", "ada@example.com", "555-0199",
				date(1815, time.December, 10), nil, nil, false).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

		require.NoError(t, s.Update(ctx, c))
		assert.Equal(t, updated, c.UpdatedAt)
	})

	t.Run("missing row", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE contacts`).WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

		assert.ErrorIs(t, s.Update(ctx, c), store.ErrContactNotFound)
	})

	t.Run("email taken", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE contacts`).WillReturnError(newPgError("23505", "contacts_email_lower_key"))

		assert.ErrorIs(t, s.Update(ctx, c), store.ErrEmailExists)
	})
}

func TestContactStore_SetAvatarURL(t *testing.T) {
	ctx := context.Background()

	t.Run("stored", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE contacts SET avatar_url`).
			WithArgs(int64(3), "https://img.example.com/3.jpg").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.SetAvatarURL(ctx, 3, "https://img.example.com/3.jpg"))
	})

	t.Run("contact gone", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE contacts SET avatar_url`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.SetAvatarURL(ctx, 3, "https://img.example.com/3.jpg"), store.ErrContactNotFound)
	})
}

func TestContactStore_MarkEmailVerified(t *testing.T) {
	ctx := context.Background()

	t.Run("flags the owner", func(t *testing.T) {
		s, mock := newMockStore(t)
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(contactColumns).AddRow(
			int64(4), "Ada", "Lovelace", "ada@example.com", "555", date(1990, 1, 1), nil, nil, true, now, now)
		mock.ExpectQuery(`SET email_verified = TRUE`).WithArgs("ada@example.com").WillReturnRows(rows)

		c, err := s.MarkEmailVerified(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, c.EmailVerified)
		assert.Equal(t, int64(4), c.ID)
	})

	t.Run("unknown email", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`SET email_verified = TRUE`).WillReturnRows(sqlmock.NewRows(contactColumns))

		_, err := s.MarkEmailVerified(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrContactNotFound)
	})
}

func TestContactStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the removed contact", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`DELETE FROM contacts WHERE id = \$1 RETURNING`).WithArgs(int64(8)).
			WillReturnRows(addContactRow(sqlmock.NewRows(contactColumns), 8, "ada@example.com", date(1990, 1, 1)))

		c, err := s.Delete(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, int64(8), c.ID)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(`DELETE FROM contacts`).WillReturnRows(sqlmock.NewRows(contactColumns))

		c, err := s.Delete(ctx, 8)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, store.ErrContactNotFound)
	})
}

func TestContactStore_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	s := postgres.NewPostgresContactStore(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM contacts WHERE id = \$1 FOR UPDATE`).WithArgs(int64(2)).
		WillReturnRows(addContactRow(sqlmock.NewRows(contactColumns), 2, "ada@example.com", date(1990, 1, 1)))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	c, err := s.WithTx(tx).GetForUpdate(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.ID)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
