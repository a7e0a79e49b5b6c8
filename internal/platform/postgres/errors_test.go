package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/contacts-api/internal/platform/postgres"
	"github.com/phrazzld/contacts-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "contacts",
		ColumnName:     "email",
		ConstraintName: constraint,
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"email unique violation", newPgError("23505", "contacts_email_lower_key"), store.ErrEmailExists},
		{"other unique violation", newPgError("23505", "contacts_pkey"), store.ErrDuplicate},
		{"check violation", newPgError("23514", "contacts_phone_check"), store.ErrInvalidEntity},
		{"not null violation", newPgError("23502", ""), store.ErrInvalidEntity},
		{"wrapped unique violation", fmt.Errorf("insert: %w", newPgError("23505", "contacts_email_lower_key")), store.ErrEmailExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := postgres.MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.target)
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unknown error unchanged", func(t *testing.T) {
		original := errors.New("connection reset")
		assert.Same(t, original, postgres.MapError(original))
	})

	t.Run("other email constraint is not an email conflict", func(t *testing.T) {
		mapped := postgres.MapError(newPgError("23505", "contacts_pkey"))
		assert.False(t, errors.Is(mapped, store.ErrEmailExists))
	})
}

func TestCheckRowsAffected(t *testing.T) {
	notFound := errors.New("gone")

	require.NoError(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 1), notFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 0), notFound), notFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 0), nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(nil, notFound))

	failing := sqlmock.NewErrorResult(errors.New("driver does not support RowsAffected"))
	err := postgres.CheckRowsAffected(failing, notFound)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get rows affected")
}
