package readcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisConfig holds configuration for the redis-backed cache.
type RedisConfig struct {
	Addr       string
	Username   string
	Password   string
	DB         int
	KeyPrefix  string
	DefaultTTL time.Duration

	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns the defaults used by the server.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "ledger:",
		DefaultTTL:   30 * time.Second,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Redis is a redis-backed read cache, used when snapshots should be shared
// across server instances.
type Redis struct {
	client rueidis.Client
	config RedisConfig
}

var _ Cache = (*Redis)(nil)

// NewRedis connects to redis and verifies the connection.
func NewRedis(config RedisConfig) (*Redis, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("readcache: redis address not configured")
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 30 * time.Second
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      []string{config.Addr},
		Username:         config.Username,
		Password:         config.Password,
		SelectDB:         config.DB,
		ConnWriteTimeout: config.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("readcache: redis client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("readcache: redis ping: %w", err)
	}

	return &Redis{client: client, config: config}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := r.client.B().Get().Key(r.config.KeyPrefix + key).Build()
	resp := r.client.Do(ctx, cmd)

	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("readcache: redis get: %w", err)
	}

	data, err := resp.AsBytes()
	if err != nil {
		return nil, fmt.Errorf("readcache: redis get: read response: %w", err)
	}
	return data, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}

	cmd := r.client.B().Set().Key(r.config.KeyPrefix + key).Value(string(value)).Ex(ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("readcache: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	cmd := r.client.B().Del().Key(r.config.KeyPrefix + key).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("readcache: redis delete: %w", err)
	}
	return nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error {
	r.client.Close()
	return nil
}
