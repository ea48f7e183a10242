package sqlite_test

import (
	"testing"

	"github.com/aussiebroadwan/notebook/internal/notebook/store"
	"github.com/aussiebroadwan/notebook/internal/notebook/store/drivers/sqlite"
	"github.com/aussiebroadwan/notebook/internal/notebook/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newStore(t).(*sqlite.Store)
	require.NoError(t, st.ApplyMigrations())
}

func TestFileDatabase(t *testing.T) {
	path := t.TempDir() + "/notes.db"

	st, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	storetest.MustUser(t, st, "Alice", "alice@example.com", "user")
	require.NoError(t, st.Close())

	reopened, err := sqlite.NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.ApplyMigrations())

	n, err := reopened.Stats().CountUsers(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDSN(t *testing.T) {
	dsn := sqlite.DSN("/var/lib/notebook/notes.db")
	require.Contains(t, dsn, "file:/var/lib/notebook/notes.db?")
	require.Contains(t, dsn, "foreign_keys%281%29")
	require.Contains(t, dsn, "journal_mode%28WAL%29")

	require.NotContains(t, sqlite.DSN(":memory:"), "journal_mode")
}
