package models

import "time"

// Delivery mediums for a published communication.
const (
	MediumDiary = "diary"
	MediumEdict = "edict"
)

// Recipient poles on a court notice.
const (
	PoleActive  = "active"
	PolePassive = "passive"
)

// Communication is one externally published legal notice ingested into the
// system. Hash is the natural deduplication key; ID is the internal store key.
type Communication struct {
	BaseModel

	ExternalID int64  `gorm:"index" json:"external_id"`
	Hash       string `gorm:"uniqueIndex;size:128;not null" json:"hash"`

	ProcessNumber       string `gorm:"size:64;index" json:"process_number"`
	ProcessNumberDigits string `gorm:"size:64;index" json:"process_number_digits"`

	TribunalCode string    `gorm:"size:32" json:"tribunal_code"`
	OrganName    string    `gorm:"size:255" json:"organ_name"`
	Text         string    `gorm:"type:text" json:"text"`
	Kind         string    `gorm:"size:64" json:"kind"`
	Medium       string    `gorm:"size:16;default:'diary'" json:"medium"`
	PublishedAt  time.Time `gorm:"index" json:"published_at"`
	ExternalLink string    `gorm:"type:text" json:"external_link"`

	// Loose references into the registry: the snapshot that produced a link
	// may not be persisted locally, so no database constraint backs these.
	ProcessID *string `gorm:"type:uuid;index" json:"process_id,omitempty"`
	ClientID  *string `gorm:"type:uuid;index" json:"client_id,omitempty"`

	Read   bool       `gorm:"default:false;index" json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
	Active bool       `gorm:"default:true;index" json:"active"`

	Lawyers    []CommunicationLawyer    `gorm:"foreignKey:CommunicationID" json:"lawyers,omitempty"`
	Recipients []CommunicationRecipient `gorm:"foreignKey:CommunicationID" json:"recipients,omitempty"`
}

// CommunicationLawyer is an attorney named on a communication. Child rows are
// written independently of the parent and may be absent in degraded states.
type CommunicationLawyer struct {
	BaseModel

	CommunicationID string `gorm:"type:uuid;index;not null" json:"communication_id"`
	Name            string `gorm:"size:255;not null" json:"name"`
}

// CommunicationRecipient is a party named on a communication.
type CommunicationRecipient struct {
	BaseModel

	CommunicationID string `gorm:"type:uuid;index;not null" json:"communication_id"`
	Name            string `gorm:"size:255;not null" json:"name"`
	Pole            string `gorm:"size:16" json:"pole"`
	TaxID           string `gorm:"size:32" json:"tax_id,omitempty"`
}
