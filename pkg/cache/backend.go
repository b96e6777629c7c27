// Package cache stores fetched image blobs keyed by their source URL.
package cache

import (
	"context"
	"time"
)

// Entry is a cached blob and the content type it was served with.
type Entry struct {
	ContentType string
	Data        []byte
}

// Backend defines the interface for cache implementations
type Backend interface {
	// Get returns (entry, found, error). Expired entries are not found.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set stores an entry with the given TTL
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}
