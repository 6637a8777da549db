package enrich

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// CacheKey builds a deterministic key from the description text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("enrich:%x", sum[:12])
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	RDB *redis.Client
}

func (c RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return c.RDB.Set(ctx, key, val, ttl).Err()
}

// MemoryCache is the in-process fallback when no Redis is configured.
type MemoryCache struct {
	m   sync.Map // key -> memEntry
	now func() time.Time
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

func (c *MemoryCache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false, nil
	}
	e := v.(memEntry)
	if !e.expiresAt.IsZero() && c.clock().After(e.expiresAt) {
		c.m.Delete(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	e := memEntry{data: val}
	if ttl > 0 {
		e.expiresAt = c.clock().Add(ttl)
	}
	c.m.Store(key, e)
	return nil
}
