package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bank-ledger/pkg/api"
	"bank-ledger/pkg/auth"
	"bank-ledger/pkg/config"
	"bank-ledger/pkg/engine"
	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/ledger/memory"
	"bank-ledger/pkg/ledger/postgres"
	"bank-ledger/pkg/logging"
	"bank-ledger/pkg/readcache"
)

func main() {
	logger, err := logging.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	cfg := config.FromEnv()

	var (
		accounts ledger.AccountStore
		txlog    ledger.TransactionLog
		users    ledger.UserDirectory
	)
	if cfg.Postgres != nil {
		db, err := postgres.Open(*cfg.Postgres)
		if err != nil {
			logger.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		accounts, txlog, users = db.Accounts(), db.TransactionLog(), db.Users()
		logger.Info("storage initialized", zap.String("backend", "postgres"))
	} else {
		dir := memory.NewUsers()
		accounts, txlog, users = memory.NewAccounts(dir), memory.NewTransactionLog(), dir
		logger.Info("storage initialized", zap.String("backend", "memory"))
	}

	var cache readcache.Cache
	if cfg.Redis != nil {
		redis, err := readcache.NewRedis(*cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		cache = readcache.NewBloomGuard(
			readcache.NewBreaker(redis, readcache.DefaultBreakerConfig(), logger),
			100000, 0.01,
		)
	} else {
		mem := readcache.DefaultMemoryConfig()
		mem.DefaultTTL = cfg.CacheTTL
		cache = readcache.NewMemory(mem)
	}
	defer cache.Close()
	logger.Info("read cache initialized", zap.String("backend", cache.Name()))

	authn := auth.NewTokenAuthenticator(cfg.AuthToken)
	if cfg.AuthToken == "" {
		logger.Info("generated api token", zap.String("token", authn.Token()))
	}

	eng := engine.New(accounts, txlog, logger)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Addr = cfg.Addr
	serverConfig.CacheTTL = cfg.CacheTTL

	server := api.NewServer(api.Deps{
		Engine:   eng,
		Accounts: accounts,
		Users:    users,
		Cache:    cache,
		Auth:     authn,
		Logger:   logger,
	}, serverConfig)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
