package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache implements Repo in process memory. Used in tests and when the
// Redis cache is disabled. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu     sync.RWMutex
	items  map[string]memoryItem
	hits   int64
	misses int64
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time // zero = no expiry
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem)}
}

// Get implements Repo.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || (!item.expiresAt.IsZero() && time.Now().After(item.expiresAt)) {
		if ok {
			c.mu.Lock()
			delete(c.items, key)
			c.mu.Unlock()
		}
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrCacheMiss
	}
	atomic.AddInt64(&c.hits, 1)
	value := make([]byte, len(item.value))
	copy(value, item.value)
	return value, nil
}

// Set implements Repo.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	item := memoryItem{value: make([]byte, len(value))}
	copy(item.value, value)
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

// Delete implements Repo.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Close implements Repo.
func (c *MemoryCache) Close() error { return nil }

// Metrics implements Repo.
func (c *MemoryCache) Metrics() Metrics {
	return Metrics{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
	}
}
