package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_None(t *testing.T) {
	for _, driver := range []string{"", DriverNone} {
		st, err := Open(context.Background(), driver, "")
		require.NoError(t, err)
		assert.Nil(t, st)
	}
}

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	require.NotNil(t, st)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	n, err := st.DeleteExpiredPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open(context.Background(), "redis", "localhost:6379")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	_, err := Open(context.Background(), DriverPostgres, "://not-a-dsn")
	require.Error(t, err)
}
