package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "AUTH_TOKEN", "CACHE_TTL", "SHUTDOWN_TIMEOUT", "STORAGE", "CACHE",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.AuthToken != "" {
		t.Errorf("AuthToken = %q, want empty", cfg.AuthToken)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v, want 30s", cfg.CacheTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.Postgres != nil {
		t.Error("Postgres config set without STORAGE=postgres")
	}
	if cfg.Redis != nil {
		t.Error("Redis config set without CACHE=redis")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_TOKEN", "token-123")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_DB", "ledger")
	t.Setenv("CACHE", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("REDIS_DB", "2")

	cfg := FromEnv()

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.AuthToken != "token-123" {
		t.Errorf("AuthToken = %q, want token-123", cfg.AuthToken)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.CacheTTL)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
	}

	if cfg.Postgres == nil {
		t.Fatal("Postgres config not set")
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5433 || cfg.Postgres.Database != "ledger" {
		t.Errorf("Postgres = %+v, want host db.internal port 5433 db ledger", cfg.Postgres)
	}

	if cfg.Redis == nil {
		t.Fatal("Redis config not set")
	}
	if cfg.Redis.Addr != "redis.internal:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v, want addr redis.internal:6379 db 2", cfg.Redis)
	}
	if cfg.Redis.DefaultTTL != 2*time.Minute {
		t.Errorf("Redis.DefaultTTL = %v, want CacheTTL 2m", cfg.Redis.DefaultTTL)
	}
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("POSTGRES_PORT", "not-a-number")

	cfg := FromEnv()

	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("CacheTTL = %v, want default 30s", cfg.CacheTTL)
	}
	if cfg.Postgres == nil || cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres = %+v, want default port 5432", cfg.Postgres)
	}
}
