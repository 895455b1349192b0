// Package cache stores fetched layer bytes and rendered export artifacts.
//
// Three backends share one interface:
//   - [NullCache] never stores anything (tests, --no-cache)
//   - [FileCache] keeps JSON entries on disk for the CLI
//   - [RedisCache] shares entries between server instances
//
// Keys are produced by a [Keyer] so callers never build them by hand.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional per-entry expiration.
type Cache interface {
	// Get returns the data and true on a hit, or nil and false on a miss.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per entry kind.
const (
	LayerTTL    = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)
