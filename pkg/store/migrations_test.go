package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_VersionsAreUniqueAndOrdered(t *testing.T) {
	migrations := Migrations()
	require.NotEmpty(t, migrations)

	seen := make(map[int]bool)
	for _, m := range migrations {
		assert.False(t, seen[m.Version], "duplicate migration version %d", m.Version)
		seen[m.Version] = true
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.Up)
	}
}
