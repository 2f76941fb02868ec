package readcache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func breakerConfigForTest() BreakerConfig {
	return BreakerConfig{
		Timeout:             time.Second,
		MaxRequests:         1,
		Interval:            time.Minute,
		OpenTimeout:         time.Minute,
		ConsecutiveFailures: 3,
	}
}

func TestBreakerPassesThrough(t *testing.T) {
	backend := newCountingCache()
	b := NewBreaker(backend, breakerConfigForTest(), nil)
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := b.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("value = %q", got)
	}
	if err := b.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := b.Get(ctx, "k"); !IsMiss(err) {
		t.Errorf("error = %v, want miss", err)
	}
}

func TestBreakerMissesAreNotFailures(t *testing.T) {
	backend := newCountingCache()
	b := NewBreaker(backend, breakerConfigForTest(), nil)
	ctx := context.Background()

	// Far more misses than the trip threshold; the circuit must stay closed.
	for i := 0; i < 20; i++ {
		if _, err := b.Get(ctx, "missing"); !IsMiss(err) {
			t.Fatalf("error = %v, want miss", err)
		}
	}
	if backend.getCount() != 20 {
		t.Errorf("backend hit %d times, want 20", backend.getCount())
	}
}

func TestBreakerOpensOnFailuresAndDegradesToMiss(t *testing.T) {
	backend := newCountingCache()
	backend.getErr = errors.New("backend down")
	b := NewBreaker(backend, breakerConfigForTest(), nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := b.Get(ctx, "k"); !IsMiss(err) {
			t.Fatalf("error = %v, want degraded miss", err)
		}
	}

	// After three consecutive failures the circuit is open and the backend
	// is no longer called.
	if backend.getCount() != 3 {
		t.Errorf("backend hit %d times, want 3 before the circuit opened", backend.getCount())
	}
}

func TestBreakerOpenCircuitFailsSets(t *testing.T) {
	backend := newCountingCache()
	backend.getErr = errors.New("backend down")
	b := NewBreaker(backend, breakerConfigForTest(), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = b.Get(ctx, "k")
	}

	if err := b.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("set through an open circuit did not fail")
	}
}
