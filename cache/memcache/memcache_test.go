package memcache_test

import (
	"testing"
	"time"

	"github.com/meridiancms/mediacore/cache/memcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	c := memcache.New(memcache.Config{Size: 8, TTL: time.Minute})

	require.NoError(t, c.Set(t.Context(), "files:abc", []byte("payload")))

	val, ok, err := c.Get(t.Context(), "files:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("payload"), val)
}

func TestGetMiss(t *testing.T) {
	c := memcache.New(memcache.Config{})

	_, ok, err := c.Get(t.Context(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearPurgesEverything(t *testing.T) {
	c := memcache.New(memcache.Config{Size: 8, TTL: time.Minute})

	require.NoError(t, c.Set(t.Context(), "a", []byte("1")))
	require.NoError(t, c.Set(t.Context(), "b", []byte("2")))

	require.NoError(t, c.Clear(t.Context()))

	_, ok, err := c.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(t.Context(), "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvictsBeyondSize(t *testing.T) {
	c := memcache.New(memcache.Config{Size: 2, TTL: time.Minute})

	require.NoError(t, c.Set(t.Context(), "a", []byte("1")))
	require.NoError(t, c.Set(t.Context(), "b", []byte("2")))
	require.NoError(t, c.Set(t.Context(), "c", []byte("3")))

	_, ok, err := c.Get(t.Context(), "a")
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry should be evicted")
}
