package models

import (
	"time"

	"gorm.io/datatypes"
)

// IngestionRun records the outcome of one batch import for operator follow-up.
type IngestionRun struct {
	BaseModel

	StartedAt  time.Time      `gorm:"index" json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Saved      int            `json:"saved"`
	Skipped    int            `json:"skipped"`
	Detail     datatypes.JSON `json:"detail,omitempty"`
}
