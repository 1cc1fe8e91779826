package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openSQLite opens the embedded database used by single-host deployments.
// WAL keeps the scheduled import's writes from blocking feed reads, and the
// busy timeout covers the moments both touch the communications table.
func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	return db, nil
}

func buildSQLiteDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		return "file::memory:?cache=shared&_foreign_keys=1", nil
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("file:%s?_foreign_keys=1&_journal_mode=WAL&_busy_timeout=5000", filepath.ToSlash(path)), nil
}
