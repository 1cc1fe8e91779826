package database

import (
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/models"
)

// AutoMigrate creates or updates the database schema for all models. The
// processes, clients, deadlines and appointments tables belong to sibling
// registries; they are migrated here so that a standalone deployment (and the
// test suite) has real tables to query.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Communication{},
		&models.CommunicationLawyer{},
		&models.CommunicationRecipient{},
		&models.Process{},
		&models.Client{},
		&models.Deadline{},
		&models.Appointment{},
		&models.IngestionRun{},
		&models.SettingEntry{},
	)
}
