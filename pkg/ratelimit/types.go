// Package ratelimit bounds request counts per client key within recurring
// time windows.
package ratelimit

import (
	"context"
	"time"
)

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is allowed.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests remaining in the current window.
	Remaining int

	// ResetAt is the time when the rate limit window resets.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Limiter defines the interface for rate limiting implementations.
type Limiter interface {
	// Allow checks if a single request is allowed for the given key.
	// If allowed, it consumes one slot.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset resets the rate limit for the given key.
	Reset(ctx context.Context, key string) error
}

// Store defines the interface for rate limit storage backends.
type Store interface {
	// IncrementAndGet atomically increments the counter for the given key,
	// starting a new window when none is active, and returns the
	// post-increment count along with the time until the window resets.
	IncrementAndGet(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)

	// Delete removes the given key from the store.
	Delete(ctx context.Context, key string) error
}

// Preset names a rate limit budget. Windows are keyed per (preset, client)
// pair so endpoints with different presets never share budgets.
type Preset struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Named presets used across the application.
var (
	// PresetAPI bounds general API traffic per client.
	PresetAPI = Preset{Name: "api", Limit: 100, Window: time.Minute}

	// PresetAuth keeps magic-link requests expensive to abuse.
	PresetAuth = Preset{Name: "auth", Limit: 5, Window: time.Minute}
)
