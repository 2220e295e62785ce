package models

import (
	"time"

	"github.com/google/uuid"
)

// Registration sources.
const (
	RegistrationSourcePublic = "public"
	RegistrationSourceAdmin  = "admin"
)

// Registration is an attendee registration for an event.
type Registration struct {
	ID                  uuid.UUID  `json:"id"`
	EventID             uuid.UUID  `json:"event_id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Phone               string     `json:"phone,omitempty"`
	Company             string     `json:"company,omitempty"`
	Position            string     `json:"position,omitempty"`
	Experience          string     `json:"experience,omitempty"`
	Expectations        string     `json:"expectations,omitempty"`
	DietaryRestrictions string     `json:"dietary_restrictions,omitempty"`
	Consent             bool       `json:"consent"`
	Source              string     `json:"source"`
	CheckinToken        string     `json:"-"`
	AttendedAt          *time.Time `json:"attended_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// FullName joins first and last name.
func (r *Registration) FullName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}
