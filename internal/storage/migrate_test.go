package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/deck-analyst/internal/storage/repository"
)

func TestMigrationManager_Up(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration-test.db")

	mgr, err := NewMigrationManager(dbPath)
	require.NoError(t, err)
	require.NoError(t, mgr.Up())
	require.NoError(t, mgr.Close())

	mgr2, err := NewMigrationManager(dbPath)
	require.NoError(t, err)
	defer mgr2.Close()

	version, dirty, err := mgr2.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))

	// Re-running is a no-op.
	require.NoError(t, mgr2.Up())
}

func TestOpen_AutoMigrateFile(t *testing.T) {
	config := DefaultConfig(filepath.Join(t.TempDir(), "nested", "cards.db"))

	db, err := Open(config)
	require.NoError(t, err)
	defer db.Close()

	var tableName string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='card_cache'`).Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "card_cache", tableName)
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.Cards().Upsert(ctx, &repository.CardCacheRow{Name: "sol ring", DisplayName: "Sol Ring"}))

	n, err := db.Cards().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_NilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}
