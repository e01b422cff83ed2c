package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache entry not found")

// LookupCache caches the results of slow outbound lookups such as WHOIS
type LookupCache interface {
	// Get retrieves a cached value, returning ErrCacheMiss when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value for the given time to live
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a cached value
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
