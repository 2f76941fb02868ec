package readcache

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"bank-ledger/pkg/logging"
)

// BreakerConfig holds circuit breaker settings for a cache backend.
type BreakerConfig struct {
	// Timeout bounds each backend call. Zero disables the bound.
	Timeout time.Duration
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval over which failure counts are reset while closed.
	Interval time.Duration
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// ConsecutiveFailures trips the circuit. Zero means 5.
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig returns settings tuned for a cache: trip fast, probe
// often, and let misses through untouched.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Timeout:             2 * time.Second,
		MaxRequests:         5,
		Interval:            30 * time.Second,
		OpenTimeout:         15 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker wraps a cache backend with circuit breaker and timeout protection.
// When the circuit is open, every operation reports a miss, so callers fall
// through to the store of record instead of waiting on a dead backend. Misses
// from the underlying cache are not counted as failures.
type Breaker struct {
	cache  Cache
	cb     *gobreaker.CircuitBreaker
	config BreakerConfig
	logger *logging.Logger
}

var _ Cache = (*Breaker)(nil)

// NewBreaker wraps cache with the given breaker settings.
func NewBreaker(cache Cache, config BreakerConfig, logger *logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("readcache").Named(cache.Name())

	threshold := config.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cache.Name(),
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		cache:  cache,
		cb:     gobreaker.NewCircuitBreaker(settings),
		config: config,
		logger: logger,
	}
}

func (b *Breaker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.config.Timeout > 0 {
		return context.WithTimeout(ctx, b.config.Timeout)
	}
	return ctx, func() {}
}

func (b *Breaker) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	value, err := b.cb.Execute(func() (interface{}, error) {
		data, err := b.cache.Get(ctx, key)
		if IsMiss(err) {
			// A miss is a healthy answer, not a backend failure.
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		// Open circuit or backend failure: degrade to a miss.
		return nil, ErrMiss
	}
	data, ok := value.([]byte)
	if !ok || data == nil {
		return nil, ErrMiss
	}
	return data, nil
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.cache.Set(ctx, key, value, ttl)
	})
	return err
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.cache.Delete(ctx, key)
	})
	return err
}

func (b *Breaker) Name() string { return b.cache.Name() + "+breaker" }

func (b *Breaker) Close() error { return b.cache.Close() }
