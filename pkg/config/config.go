// Package config assembles the service configuration from environment
// variables with sensible defaults, the way the rest of the stack (logging,
// stores) is configured.
package config

import (
	"os"
	"strconv"
	"time"

	"bank-ledger/pkg/ledger/postgres"
	"bank-ledger/pkg/readcache"
)

// Config is the full service configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// AuthToken is the accepted bearer token. Empty means generate one at
	// startup and log it.
	AuthToken string

	// Postgres is set when STORAGE=postgres; nil selects the in-memory
	// backend.
	Postgres *postgres.Config

	// Redis is set when CACHE=redis; nil selects the in-process read cache.
	Redis *readcache.RedisConfig

	// CacheTTL bounds how stale a display read may be.
	CacheTTL time.Duration

	// ShutdownTimeout bounds the graceful drain on SIGTERM.
	ShutdownTimeout time.Duration
}

// FromEnv reads the configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		Addr:            ":" + getEnv("PORT", "8080"),
		AuthToken:       os.Getenv("AUTH_TOKEN"),
		CacheTTL:        getEnvDuration("CACHE_TTL", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if getEnv("STORAGE", "memory") == "postgres" {
		pg := postgres.DefaultConfig()
		pg.Host = getEnv("POSTGRES_HOST", pg.Host)
		pg.Port = getEnvInt("POSTGRES_PORT", pg.Port)
		pg.User = getEnv("POSTGRES_USER", pg.User)
		pg.Password = getEnv("POSTGRES_PASSWORD", pg.Password)
		pg.Database = getEnv("POSTGRES_DB", pg.Database)
		pg.SSLMode = getEnv("POSTGRES_SSLMODE", pg.SSLMode)
		cfg.Postgres = &pg
	}

	if getEnv("CACHE", "memory") == "redis" {
		rd := readcache.DefaultRedisConfig()
		rd.Addr = getEnv("REDIS_ADDR", rd.Addr)
		rd.Username = os.Getenv("REDIS_USERNAME")
		rd.Password = os.Getenv("REDIS_PASSWORD")
		rd.DB = getEnvInt("REDIS_DB", rd.DB)
		rd.DefaultTTL = cfg.CacheTTL
		cfg.Redis = &rd
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
