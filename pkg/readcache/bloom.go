package readcache

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

// BloomGuard wraps a cache with a probabilistic membership filter over keys
// ever written. Lookups for keys that were never cached are answered locally
// as misses without touching the backend, which keeps cold ids (and probing
// for nonexistent accounts) off the redis connection. The filter is add-only:
// a deleted key still tests positive and costs one backend round trip, which
// the TTL bounds anyway.
type BloomGuard struct {
	cache  Cache
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

var _ Cache = (*BloomGuard)(nil)

// NewBloomGuard wraps cache with a filter sized for expectedItems at the given
// false positive rate.
func NewBloomGuard(cache Cache, expectedItems uint, falsePositiveRate float64) *BloomGuard {
	if expectedItems == 0 {
		expectedItems = 100000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}
	return &BloomGuard{
		cache:  cache,
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func (g *BloomGuard) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.RLock()
	mayExist := g.filter.Test([]byte(key))
	g.mu.RUnlock()

	if !mayExist {
		return nil, ErrMiss
	}
	return g.cache.Get(ctx, key)
}

func (g *BloomGuard) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	g.mu.Lock()
	g.filter.Add([]byte(key))
	g.mu.Unlock()

	return g.cache.Set(ctx, key, value, ttl)
}

func (g *BloomGuard) Delete(ctx context.Context, key string) error {
	return g.cache.Delete(ctx, key)
}

func (g *BloomGuard) Name() string { return "bloom(" + g.cache.Name() + ")" }

func (g *BloomGuard) Close() error { return g.cache.Close() }
