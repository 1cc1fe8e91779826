package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/database"
)

// MustOpenTestDB opens an in-memory SQLite database for tests with the full
// schema applied. The returned connection is automatically closed via t.Cleanup.
func MustOpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=1"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A pooled second connection would see its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}
