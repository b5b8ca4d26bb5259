package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrementAndGet(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	count, ttl, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	count, ttl, err = store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Positive(t, ttl)
}

func TestMemoryStoreExpiredWindowRestarts(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, _, err := store.IncrementAndGet(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	count, _, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, _, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "k"))

	count, _, err := store.IncrementAndGet(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStoreSweepEvictsStaleKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(WithSweepInterval(10 * time.Millisecond))
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, _, err := store.IncrementAndGet(ctx, "stale", 5*time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		_, exists := store.windows["stale"]
		return !exists
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
