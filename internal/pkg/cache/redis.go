// Package cache is a thin Redis wrapper used for the hot lookups the
// storefront repeats on every request: user roles and the product catalog.
// Every value carries a TTL; the store stays the source of truth.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the port the services depend on. A nil Cache is a valid
// configuration everywhere it is injected — callers fall through to the
// backing store.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}

type redisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache wraps an existing Redis client. keyPrefix namespaces this
// service's keys, e.g. "storefront".
func NewRedisCache(client *redis.Client, keyPrefix string) Cache {
	return &redisCache{client: client, keyPrefix: keyPrefix}
}

func (r *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Get returns "" with a nil error on a cache miss; callers treat an empty
// string as "not cached".
func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *redisCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.keyPrefix, operation, key)
}
