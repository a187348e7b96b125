package cache

import (
	"context"
	"fmt"
	"time"

	"bandlink/internal/platforms"
)

// Cache defines the interface for caching operations
type Cache interface {
	// Get retrieves a value from cache; a missing key returns (nil, nil)
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error

	// Health checks cache health
	Health(ctx context.Context) error
}

// TTLs for the cached read paths. Resolved tracks are stable enough for an
// hour; smart-link payloads churn with verification writes and stay short.
const (
	TrackTTL     = 1 * time.Hour
	SmartLinkTTL = 5 * time.Minute
)

// TrackKey is the cache key for a resolved track by source coordinates.
func TrackKey(platform platforms.Platform, sourceID string) string {
	return fmt.Sprintf("track:%s:%s", platform, sourceID)
}

// SlugKey is the cache key for a smart-link payload.
func SlugKey(slug string) string {
	return "slug:" + slug
}

// CacheError represents a cache operation error
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
