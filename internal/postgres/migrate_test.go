package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, "0001_init", migrations[0].Version)
	for _, table := range []string{"subscriptions", "products", "orders", "user_preferences"} {
		assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, migrations[0].SQL, "idempotency_key  VARCHAR(100) UNIQUE")
}
