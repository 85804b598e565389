package persistence

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestInitMigration_CascadesTickets(t *testing.T) {
	content, err := fs.ReadFile(migrationFiles, "migrations/0001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "REFERENCES customers (id) ON DELETE CASCADE")
}
