package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSQLiteDSN(t *testing.T) {
	dsn, err := buildSQLiteDSN(Config{})
	require.NoError(t, err)
	require.Contains(t, dsn, ":memory:")

	path := filepath.Join(t.TempDir(), "nested", "comunicahub.sqlite")
	dsn, err = buildSQLiteDSN(Config{Path: path})
	require.NoError(t, err)
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")
	require.DirExists(t, filepath.Dir(path))

	dsn, err = buildSQLiteDSN(Config{DSN: "file:custom.sqlite"})
	require.NoError(t, err)
	require.Equal(t, "file:custom.sqlite", dsn)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{
		User:     "app",
		Password: "s3cret",
		Host:     "db.internal",
		Port:     3307,
		Name:     "comunicahub",
		Options:  map[string]string{"tls": "skip-verify"},
	})
	require.NoError(t, err)
	require.Contains(t, dsn, "tcp(db.internal:3307)")
	require.Contains(t, dsn, "/comunicahub")
	require.Contains(t, dsn, "parseTime=true")
	require.Contains(t, dsn, "charset=utf8mb4")
	require.Contains(t, dsn, "tls=skip-verify")

	_, err = buildMySQLDSN(Config{User: "app"})
	require.Error(t, err)
}
