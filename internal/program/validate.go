package program

import (
	"fmt"
	"regexp"
)

// ReasonBadTime is the ValidationError reason for a malformed time of day.
const ReasonBadTime = "bad time format"

// ReasonMalformed is the ValidationError reason for items that are not valid JSON.
const ReasonMalformed = "malformed program items"

// timePattern accepts 24-hour H:MM and HH:MM.
var timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidationError rejects a program write. Nothing is persisted when it is returned.
type ValidationError struct {
	ItemTitle string `json:"itemTitle,omitempty"`
	Reason    string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.ItemTitle == "" {
		return "invalid program: " + e.Reason
	}
	return fmt.Sprintf("invalid program item %q: %s", e.ItemTitle, e.Reason)
}

// ValidTime reports whether s is a 24-hour time of day.
func ValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// Validate checks every item; the first failure rejects the whole batch.
func Validate(items []Item) error {
	for _, it := range items {
		if !ValidTime(it.Time) {
			return &ValidationError{
				ItemTitle: TranslatedField(it.Title, BaseLanguage, string(it.ID)),
				Reason:    ReasonBadTime,
			}
		}
	}
	return nil
}
