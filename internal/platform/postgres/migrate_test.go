package postgres_test

import (
	"context"
	"testing"

	"github.com/phrazzld/contacts-api/internal/platform/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := postgres.Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, int64(1), migrations[0].Version)
}

func TestMigrate_RejectsBadInput(t *testing.T) {
	err := postgres.Migrate(context.Background(), nil, postgres.MigrateUp, nil)
	assert.Error(t, err)
}
