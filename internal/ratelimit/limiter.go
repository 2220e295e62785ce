// Package ratelimit implements fixed-window request counters keyed by client.
//
// A window opens on the first attempt from a key and lasts for the configured duration.
// Every attempt inside the window counts, allowed or not. Expired windows are reset on the
// next access; nothing runs in the background.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one counted attempt.
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long until the key's window resets. Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter counts attempts per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}
