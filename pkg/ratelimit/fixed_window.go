package ratelimit

import (
	"context"
	"time"
)

// FixedWindow implements a fixed-window counter. The first request for a key
// opens a window; every request increments the counter and a post-increment
// count above the limit is rejected until the window resets.
type FixedWindow struct {
	store  Store
	preset Preset
}

// NewFixedWindow creates a fixed-window limiter for the given preset.
func NewFixedWindow(store Store, preset Preset) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if preset.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if preset.Window <= 0 {
		return nil, ErrInvalidInterval
	}

	return &FixedWindow{store: store, preset: preset}, nil
}

// Allow consumes one slot for the key and reports whether the request fits
// the window budget.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	count, ttl, err := fw.store.IncrementAndGet(ctx, fw.storeKey(key), fw.preset.Window)
	if err != nil {
		return nil, err
	}

	remaining := fw.preset.Limit - int(count)

	return &Result{
		Allowed:   count <= int64(fw.preset.Limit),
		Limit:     fw.preset.Limit,
		Remaining: max(0, remaining),
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// Reset clears the window for the key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, fw.storeKey(key))
}

// storeKey prefixes client keys with the preset name so budgets stay
// independent per endpoint class.
func (fw *FixedWindow) storeKey(key string) string {
	return fw.preset.Name + ":" + key
}
