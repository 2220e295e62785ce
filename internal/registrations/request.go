package registrations

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var errConsent = errors.New("must be accepted")

// Request is a public self-registration. Consent must be literally true.
type Request struct {
	EventID             string `json:"eventId"`
	Email               string `json:"email"`
	FirstName           string `json:"firstName"`
	LastName            string `json:"lastName"`
	Phone               string `json:"phone,omitempty"`
	Company             string `json:"company,omitempty"`
	Position            string `json:"position,omitempty"`
	Experience          string `json:"experience,omitempty"`
	Expectations        string `json:"expectations,omitempty"`
	DietaryRestrictions string `json:"dietaryRestrictions,omitempty"`
	Consent             *bool  `json:"consent"`
}

// Normalize trims every field and lower-cases the email.
func (r *Request) Normalize() {
	for _, f := range []*string{
		&r.EventID, &r.FirstName, &r.LastName, &r.Phone, &r.Company,
		&r.Position, &r.Experience, &r.Expectations, &r.DietaryRestrictions,
	} {
		*f = strings.TrimSpace(*f)
	}
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate checks the request shape. Errors are keyed by JSON field name. Length limits
// count characters, not bytes, so Arabic or accented names get the same room as ASCII.
func (r *Request) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.EventID, validation.Required),
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern).Error("must be a valid email address")),
		validation.Field(&r.FirstName, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.Phone, validation.RuneLength(0, 40)),
		validation.Field(&r.Expectations, validation.RuneLength(0, 2000)),
		validation.Field(&r.Consent, validation.By(isTrue)),
	)
}

func isTrue(value interface{}) error {
	switch v := value.(type) {
	case *bool:
		if v != nil && *v {
			return nil
		}
	case bool:
		if v {
			return nil
		}
	}
	return errConsent
}
