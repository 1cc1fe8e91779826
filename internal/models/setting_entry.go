package models

import "time"

// SettingEntry represents a key-value record stored in the database-backed
// local settings store.
type SettingEntry struct {
	Key       string `gorm:"primaryKey;size:256"`
	Value     []byte `gorm:"type:blob"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
