// Package memcache implements the cache contract on an in-process
// expirable LRU. Each process owns its cache; Clear only affects the
// local instance.
package memcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/meridiancms/mediacore/cache"
)

const (
	defaultSize = 1024
	defaultTTL  = 5 * time.Minute
)

// Config bounds the in-memory cache.
type Config struct {
	// Size is the maximum number of entries held before eviction.
	Size int `yaml:"size" default:"1024"`

	// TTL is the lifetime of cached entries.
	TTL time.Duration `yaml:"ttl" default:"5m"`
}

var _ cache.Invalidator = (*Cache)(nil)

// Cache is an in-process LRU with per-entry expiry.
type Cache struct {
	lru *expirable.LRU[string, []byte]
}

// New creates an in-memory cache.
func New(cfg Config) *Cache {
	if cfg.Size <= 0 {
		cfg.Size = defaultSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}

	return &Cache{
		lru: expirable.NewLRU[string, []byte](cfg.Size, nil, cfg.TTL),
	}
}

// Get returns the cached entry and whether it was present.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := c.lru.Get(key)
	return val, ok, nil
}

// Set stores the entry.
func (c *Cache) Set(_ context.Context, key string, val []byte) error {
	c.lru.Add(key, val)
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(_ context.Context) error {
	c.lru.Purge()
	return nil
}
