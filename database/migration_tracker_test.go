package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsMigrationsAppliedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.db")

	db, err := NewAnalyticsDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Повторное открытие не должно применять миграции заново
	db, err = NewAnalyticsDB(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.GetDB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, len(analyticsMigrations), count)

	for _, m := range analyticsMigrations {
		applied, err := isMigrationApplied(db.GetDB(), m.name)
		require.NoError(t, err)
		assert.True(t, applied, m.name)
	}
}

func TestEnsureMigrationAppliedRollsBackOnFailure(t *testing.T) {
	db, err := NewAnalyticsDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	broken := migration{
		name: "999_broken",
		statements: []string{
			`CREATE TABLE scratch (id INTEGER)`,
			`CREATE TABLE scratch (id INTEGER)`,
		},
	}
	applied, err := ensureMigrationApplied(db.GetDB(), broken)
	assert.Error(t, err)
	assert.False(t, applied)

	ok, err := isMigrationApplied(db.GetDB(), broken.name)
	require.NoError(t, err)
	assert.False(t, ok)

	var n int
	require.NoError(t, db.GetDB().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = 'scratch'`).Scan(&n))
	assert.Zero(t, n, "failed migration must leave no tables behind")
}
