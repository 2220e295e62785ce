package registrations

import (
	"crypto/rand"
	"encoding/base64"
)

// generateToken returns a random 43-character URL-safe check-in token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
