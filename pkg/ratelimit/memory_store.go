package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for single-process deployments.
// A background sweep evicts expired windows so key cardinality stays bounded.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window

	sweepInterval time.Duration
	stopSweep     chan struct{}
	sweepOnce     sync.Once
}

type window struct {
	count     int64
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often expired windows are evicted.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// NewMemoryStore creates an in-memory store with automatic eviction of
// expired windows (default sweep interval: one minute).
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		windows:       make(map[string]*window),
		sweepInterval: time.Minute,
		stopSweep:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweepLoop()

	return s
}

// IncrementAndGet atomically increments the counter for the key, opening a
// fresh window when none is active or the previous one has elapsed.
func (s *MemoryStore) IncrementAndGet(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, exists := s.windows[key]

	if !exists || now.After(w.expiresAt) {
		w = &window{count: 1, expiresAt: now.Add(ttl)}
		s.windows[key] = w
		return w.count, ttl, nil
	}

	w.count++
	return w.count, time.Until(w.expiresAt), nil
}

// Delete removes the given key from the store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
	return nil
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, w := range s.windows {
		if now.After(w.expiresAt) {
			delete(s.windows, key)
		}
	}
}

// Close stops the sweep goroutine.
func (s *MemoryStore) Close() error {
	s.sweepOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}
