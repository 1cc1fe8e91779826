package models

// Process is an internally tracked legal case. The registry is owned by an
// external collaborator; this core only reads it and writes the implicit link
// onto a Communication.
type Process struct {
	BaseModel

	ProcessCode string  `gorm:"size:64;index;not null" json:"process_code"`
	ClientID    *string `gorm:"type:uuid;index" json:"client_id,omitempty"`
}

// Client is a registered client of the office. Read-only from this core.
type Client struct {
	BaseModel

	FullName string `gorm:"size:255;index;not null" json:"full_name"`
}
