package models

import "time"

// Deadline statuses.
const (
	DeadlineStatusPending = "pending"
	DeadlineStatusDone    = "done"
)

// Deadline is a procedural due date tracked by the office.
type Deadline struct {
	BaseModel

	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueAt       time.Time `gorm:"index;not null" json:"due_at"`
	Status      string    `gorm:"size:16;default:'pending';index" json:"status"`
	ProcessID   *string   `gorm:"type:uuid;index" json:"process_id,omitempty"`
}

// Appointment is a calendar event (hearing, meeting) tracked by the office.
type Appointment struct {
	BaseModel

	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	StartsAt    time.Time `gorm:"index;not null" json:"starts_at"`
	Location    string    `gorm:"size:255" json:"location"`
}
