package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// RedisStore is a Store backed by Redis, for deployments where rate limit
// budgets must be shared across instances. Window expiry is delegated to
// Redis key TTLs, so no explicit sweeping is needed.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// IncrementAndGet atomically increments the counter and sets the window TTL
// when the key is created. INCR and EXPIRE NX run in one pipeline round trip.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	key = redisKeyPrefix + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// NX keeps the original window deadline when the key already exists.
	pipe.ExpireNX(ctx, key, ttl)
	remaining := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	windowTTL := remaining.Val()
	if windowTTL < 0 {
		windowTTL = ttl
	}

	return incr.Val(), windowTTL, nil
}

// Delete removes the given key from the store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisKeyPrefix+key).Err()
}
