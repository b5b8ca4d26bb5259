package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket smooths bursts with a per-key token bucket built on
// golang.org/x/time/rate. Unlike FixedWindow it refills continuously, which
// suits latency-sensitive endpoints where hard window edges cause stampedes.
type TokenBucket struct {
	mu      sync.Mutex
	buckets map[string]*bucketEntry

	limit rate.Limit
	burst int

	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepOnce     sync.Once
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTokenBucket creates a token bucket limiter allowing limit requests per
// window with the given burst capacity.
func NewTokenBucket(preset Preset, burst int) (*TokenBucket, error) {
	if preset.Limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if preset.Window <= 0 {
		return nil, ErrInvalidInterval
	}
	if burst <= 0 {
		burst = preset.Limit
	}

	tb := &TokenBucket{
		buckets:       make(map[string]*bucketEntry),
		limit:         rate.Limit(float64(preset.Limit) / preset.Window.Seconds()),
		burst:         burst,
		sweepInterval: time.Minute,
		stopSweep:     make(chan struct{}),
	}

	go tb.sweepLoop()

	return tb, nil
}

// Allow consumes one token for the key.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	tb.mu.Lock()
	entry, ok := tb.buckets[key]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(tb.limit, tb.burst)}
		tb.buckets[key] = entry
	}
	entry.lastSeen = time.Now()
	tb.mu.Unlock()

	reservation := entry.limiter.Reserve()
	delay := reservation.Delay()
	if delay > 0 {
		reservation.Cancel()
		return &Result{
			Allowed:   false,
			Limit:     tb.burst,
			Remaining: 0,
			ResetAt:   time.Now().Add(delay),
		}, nil
	}

	return &Result{
		Allowed:   true,
		Limit:     tb.burst,
		Remaining: int(entry.limiter.Tokens()),
		ResetAt:   time.Now(),
	}, nil
}

// Reset drops the bucket for the key.
func (tb *TokenBucket) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	delete(tb.buckets, key)
	return nil
}

func (tb *TokenBucket) sweepLoop() {
	ticker := time.NewTicker(tb.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tb.sweep()
		case <-tb.stopSweep:
			return
		}
	}
}

// sweep evicts buckets idle for three sweep intervals; an evicted key simply
// starts with a full bucket on its next request.
func (tb *TokenBucket) sweep() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	cutoff := time.Now().Add(-3 * tb.sweepInterval)
	for key, entry := range tb.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(tb.buckets, key)
		}
	}
}

// Close stops the sweep goroutine.
func (tb *TokenBucket) Close() error {
	tb.sweepOnce.Do(func() {
		close(tb.stopSweep)
	})
	return nil
}
