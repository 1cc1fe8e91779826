package feed

import (
	"strings"
	"time"
)

// Source types of a notification item.
const (
	SourceIntimation  = "intimation"
	SourceDeadline    = "deadline"
	SourceAppointment = "appointment"
)

// Priority levels, ordered urgent < high < normal.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Item is the ephemeral unified representation of one unread communication,
// pending deadline or upcoming appointment. Items are regenerated on every
// aggregation call and never persisted; the deterministic composite ID lets
// read-state be tracked by id alone.
type Item struct {
	ID          string    `json:"id"`
	SourceType  string    `json:"source_type"`
	SourceID    string    `json:"source_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OccursAt    time.Time `json:"occurs_at"`
	Priority    string    `json:"priority"`
	IsRead      bool      `json:"is_read"`
}

// ItemID derives the stable composite identifier for a source record.
func ItemID(sourceType, sourceID string) string {
	return sourceType + "-" + sourceID
}

// SplitItemID decomposes a composite identifier. Source type names carry no
// dash, so the first dash is the separator.
func SplitItemID(id string) (sourceType, sourceID string, ok bool) {
	sourceType, sourceID, ok = strings.Cut(id, "-")
	if !ok || sourceType == "" || sourceID == "" {
		return "", "", false
	}
	switch sourceType {
	case SourceIntimation, SourceDeadline, SourceAppointment:
		return sourceType, sourceID, true
	default:
		return "", "", false
	}
}

func priorityRank(priority string) int {
	switch priority {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}
