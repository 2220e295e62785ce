package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is an organizer's event. Its program is stored alongside it but served separately.
type Event struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	IsPublic     bool       `json:"is_public"`
	MaxAttendees *int       `json:"max_attendees,omitempty"` // nil means no ceiling
	CreatedBy    uuid.UUID  `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
