package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	ctx := context.Background()

	gdb, err := Open(ctx, "sqlite://file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, gdb))

	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T", m)
	}
}

func TestIsSQLite(t *testing.T) {
	assert.True(t, IsSQLite("sqlite://menu.db"))
	assert.False(t, IsSQLite("postgres://u:p@localhost/db"))
}

func TestMigrate_PostgresTrigger(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	gdb, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, gdb))
	// idempotent
	require.NoError(t, Migrate(ctx, gdb))

	var n int64
	require.NoError(t, gdb.Raw(
		`SELECT count(*) FROM pg_trigger WHERE tgname = 'orders_changes_trigger' AND NOT tgisinternal`,
	).Scan(&n).Error)
	assert.Equal(t, int64(1), n)
}
