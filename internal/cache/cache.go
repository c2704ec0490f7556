package cache

import (
	"context"
	"errors"
	"time"
)

// Repo is a byte-value cache used for cache-aside reads (leaderboard).
// Cache failures are advisory: callers fall through to the primary store.
type Repo interface {
	// Get returns the value for key, or ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value with the given TTL. TTL = 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the key.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection.
	Close() error

	// Metrics returns hit/miss counters.
	Metrics() Metrics
}

// Metrics are cumulative cache counters.
type Metrics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// ErrCacheMiss signals an absent or expired key.
var ErrCacheMiss = errors.New("cache miss")
