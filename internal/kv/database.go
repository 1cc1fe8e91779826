package kv

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ramonvasc/comunicahub/internal/models"
)

// DatabaseStore implements Store on top of the primary SQL database.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore constructs a database-backed Store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db}
}

// Set upserts the value for a given key.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte) error {
	if s == nil {
		return errors.New("kv: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	entry := models.SettingEntry{
		Key:   key,
		Value: value,
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
}

// Get retrieves a value by key.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, errors.New("kv: database store not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var entry models.SettingEntry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return entry.Value, true, nil
}

// Delete removes keys from the store.
func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return errors.New("kv: database store not initialised")
	}
	if len(keys) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return s.db.WithContext(ctx).Where("key IN ?", keys).Delete(&models.SettingEntry{}).Error
}
