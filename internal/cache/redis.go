package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds each cache operation so a slow Redis never
// stalls a command; the cache is best-effort.
const redisOpTimeout = 2 * time.Second

// RedisStore keeps cached documents in Redis, with the TTL enforced
// server-side via key expiry.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore connected to addr.
func NewRedisStore(addr, label, url string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    "halnav:" + cacheFilename(label, url),
		ttl:    ttl,
	}
}

// Get loads the cached document into dst. Returns false on miss,
// expiry, connection failure, or when caching is disabled.
func (s *RedisStore) Get(dst any) bool {
	if Disabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Put writes the document with the store's TTL. Silently no-ops on
// error or when disabled.
func (s *RedisStore) Put(value any) {
	if Disabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_ = s.client.Set(ctx, s.key, data, s.ttl).Err()
}

// Clear removes this cache key.
func (s *RedisStore) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_ = s.client.Del(ctx, s.key).Err()
}
