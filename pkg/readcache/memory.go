package readcache

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig holds configuration for the in-process cache.
type MemoryConfig struct {
	// DefaultTTL is applied when Set is called with a zero ttl.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration
}

// DefaultMemoryConfig returns the defaults used by the server.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		DefaultTTL:      30 * time.Second,
		CleanupInterval: time.Minute,
	}
}

// Memory is an in-process TTL cache. Expired entries are dropped lazily on Get
// and swept by a background goroutine.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]memoryEntry
	config MemoryConfig

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates the cache and starts its cleanup goroutine.
func NewMemory(config MemoryConfig) *Memory {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 30 * time.Second
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}

	m := &Memory{
		data:   make(map[string]memoryEntry),
		config: config,
		stop:   make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanup()

	return m
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return nil, ErrMiss
	}
	return entry.value, nil
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.config.DefaultTTL
	}

	m.mu.Lock()
	m.data[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Name() string { return "memory" }

// Close stops the cleanup goroutine.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
	return nil
}

func (m *Memory) cleanup() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.data {
				if now.After(entry.expiresAt) {
					delete(m.data, key)
				}
			}
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}
