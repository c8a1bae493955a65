// Package rediscache implements the cache contract on Redis.
package rediscache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/meridiancms/mediacore/cache"
	"github.com/redis/go-redis/v9"
)

// scanCount is the page size used when sweeping the namespace.
const scanCount = 256

var _ cache.Invalidator = (*Cache)(nil)

// Cache stores entries under a key prefix in Redis.
type Cache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed cache.
func New(cfg Config) *Cache {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:         strings.Split(cfg.Addrs, ","),
		Username:      cfg.Username,
		Password:      cfg.Password,
		IsClusterMode: cfg.IsClusterMode,
	})

	return &Cache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

// Get returns the cached entry and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errx.Wrap(err, errx.WithDetails(errx.D{"key": key}))
	}

	return val, true, nil
}

// Set stores the entry under the namespace prefix with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	if err := c.client.Set(ctx, c.key(key), val, c.ttl).Err(); err != nil {
		return errx.Wrap(err, errx.WithDetails(errx.D{"key": key}))
	}
	return nil
}

// Clear removes every key under the namespace prefix. Keys are discovered
// with SCAN and deleted page by page, so other namespaces sharing the
// server stay intact.
func (c *Cache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+":*", scanCount).Result()
		if err != nil {
			return errx.Wrap(err, errx.WithDetails(errx.D{"prefix": c.prefix}))
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return errx.Wrap(err, errx.WithDetails(errx.D{"prefix": c.prefix}))
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the underlying client connections.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(key string) string {
	return c.prefix + ":" + key
}
