package repository

import (
	"context"
	"time"
)

// CacheRepository is the byte-level cache used by the traffic segment
// cache and geocode result caching.
type CacheRepository interface {
	// Get returns the cached value, or nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)
}

// RateLimitRepository counts submissions per user in a rolling window. The
// increment must be atomic; this is where a race would change observable
// correctness.
type RateLimitRepository interface {
	// Increment adds one to the user's window counter, creating it with the
	// window TTL when absent, and returns the new count plus the time the
	// window resets.
	Increment(ctx context.Context, userID string, window time.Duration) (count int, resetAt time.Time, err error)

	// Count returns the current counter without incrementing.
	Count(ctx context.Context, userID string) (int, error)
}
