package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold is the map size above which expired windows are dropped on access.
const sweepThreshold = 10000

type counter struct {
	count int
	start time.Time
}

// MemoryLimiter is a process-local Limiter. Counts are lost on restart and are not shared
// between replicas.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*counter
	now     func() time.Time
}

// NewMemoryLimiter allows limit attempts per key per window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     limit,
		window:  window,
		entries: make(map[string]*counter),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (l *MemoryLimiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Allow counts one attempt for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) >= sweepThreshold {
		l.sweep(now)
	}

	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) > l.window {
		w = &counter{start: now}
		l.entries[key] = w
	}
	w.count++
	if w.count > l.max {
		return Decision{Allowed: false, RetryAfter: w.start.Add(l.window).Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - w.count}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for k, w := range l.entries {
		if now.Sub(w.start) > l.window {
			delete(l.entries, k)
		}
	}
}
