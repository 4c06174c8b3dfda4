package idempotency

import (
	"context"
	"time"

	"webhook-guard/internal/redis"
)

// KeyPrefix namespaces delivery keys in Redis.
const KeyPrefix = "webhook:delivery:"

// RedisStore shares delivery keys between instances using SETNX.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on client. The client is owned by the
// caller and not closed by Close.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, KeyPrefix+key, ttl)
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Delete(ctx, KeyPrefix+key)
}

func (s *RedisStore) Close() error {
	return nil
}
