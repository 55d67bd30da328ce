package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process cache backed by patrickmn/go-cache.
// Entries do not survive the process; it suits `dcmdict serve`, which
// re-resolves the corpus on demand.
type MemoryCache struct {
	c   *gocache.Cache
	ttl time.Duration
}

// NewMemoryCache creates a memory cache. A ttl of zero keeps entries until
// they are deleted.
func NewMemoryCache(ttl time.Duration) Cache {
	exp := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		exp = ttl
		cleanup = ttl
	}
	return &MemoryCache{c: gocache.New(exp, cleanup), ttl: ttl}
}

// Get retrieves a value from the cache.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		m.c.Delete(key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value in the cache. A zero ttl falls back to the cache default.
func (m *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	exp := gocache.DefaultExpiration
	if ttl > 0 {
		exp = ttl
	}
	m.c.Set(key, data, exp)
	return nil
}

// Delete removes a value from the cache.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

// Close empties the cache.
func (m *MemoryCache) Close() error {
	m.c.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
