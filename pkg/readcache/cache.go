// Package readcache is a small TTL cache for display reads. Listing and get
// endpoints may serve a slightly stale account or transaction snapshot; the
// transfer engine never reads through it. Values are opaque bytes (the HTTP
// layer stores JSON-encoded snapshots).
package readcache

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("readcache: miss")

// Cache is the read-cache contract. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the cached value or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value for ttl. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs.
	Name() string

	// Close releases backend resources.
	Close() error
}

// IsMiss reports whether err indicates a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// AccountKey builds the cache key for an account snapshot.
func AccountKey(id int64) string {
	return "account:" + strconv.FormatInt(id, 10)
}

// TransactionKey builds the cache key for a transaction snapshot.
func TransactionKey(id int64) string {
	return "transaction:" + strconv.FormatInt(id, 10)
}
