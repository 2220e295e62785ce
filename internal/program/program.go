// Package program stores and projects an event's multilingual agenda.
//
// A program is persisted as a single JSON blob on the event row. Two shapes exist in
// storage: the legacy shape, whose text fields are plain strings, and the current shape,
// whose text fields are per-locale dictionaries. Reads accept both and never fail; writes
// are validated and always produce the current shape.
package program

import (
	"bytes"
	"encoding/json"
)

// Language is a locale code such as "fr" or "en".
type Language string

// BaseLanguage is the mandatory locale every LocalizedText carries.
const BaseLanguage Language = "fr"

// SessionType classifies an agenda slot.
type SessionType string

const (
	SessionConference SessionType = "conference"
	SessionWorkshop   SessionType = "workshop"
	SessionNetworking SessionType = "networking"
	SessionBreak      SessionType = "break"
	SessionCeremony   SessionType = "ceremony"
)

// LocalizedText holds one string per locale. The "fr" entry is the fallback for all others.
type LocalizedText map[Language]string

// ItemID accepts both JSON strings and numbers; older clients wrote numeric ids.
type ItemID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ItemID(n.String())
	return nil
}

// LegacyItem is one agenda slot in the single-language format.
type LegacyItem struct {
	ID          ItemID `json:"id"`
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Speaker     string `json:"speaker,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Item is one agenda slot in the multilingual format.
type Item struct {
	ID          ItemID        `json:"id"`
	Time        string        `json:"time"`
	Title       LocalizedText `json:"title"`
	Description LocalizedText `json:"description,omitempty"`
	Speaker     LocalizedText `json:"speaker,omitempty"`
	Location    LocalizedText `json:"location,omitempty"`
	Type        SessionType   `json:"type,omitempty"`
	// IsSession marks a slot with its own registration flow, separate from the event's.
	IsSession bool `json:"isSession,omitempty"`
}

// Data is the persisted program of an event.
type Data struct {
	HasProgram   bool   `json:"hasProgram"`
	ProgramItems []Item `json:"programItems,omitzero"` // nil only for a cleared program
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// Empty returns the "no program" value used for absent or unreadable blobs.
func Empty() Data {
	return Data{HasProgram: false, ProgramItems: []Item{}}
}

// ProjectedItem is an Item resolved to a single language.
type ProjectedItem struct {
	ID          ItemID      `json:"id"`
	Time        string      `json:"time"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Speaker     string      `json:"speaker,omitempty"`
	Location    string      `json:"location,omitempty"`
	Type        SessionType `json:"type,omitempty"`
	IsSession   bool        `json:"isSession,omitempty"`
}

// Projection is a program resolved to a single language, shaped like the legacy format.
type Projection struct {
	HasProgram   bool            `json:"hasProgram"`
	UpdatedAt    string          `json:"updatedAt,omitempty"`
	ProgramItems []ProjectedItem `json:"programItems,omitzero"`
}
