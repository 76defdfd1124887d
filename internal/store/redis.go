package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-lms/internal/platform/cache"
)

// RedisStore keeps each collection as a plain string value under a
// namespaced key.
type RedisStore struct {
	cache *cache.Cache
}

// NewRedisStore creates a store on an open cache connection.
func NewRedisStore(c *cache.Cache) (*RedisStore, error) {
	if c == nil || c.Client == nil {
		return nil, fmt.Errorf("cache client is nil")
	}
	return &RedisStore{cache: c}, nil
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.cache.Client.Get(ctx, s.cache.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Write(ctx context.Context, key string, value []byte) error {
	if err := s.cache.Client.Set(ctx, s.cache.Key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.cache.Client.Del(ctx, s.cache.Key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	return s.cache.HealthCheck(ctx)
}
