// Package api exposes the ledger over HTTP: account and user plumbing, the
// transfer operation, and history queries, all behind a bearer-token check.
// Responses use a uniform {status, message, data} envelope.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bank-ledger/pkg/auth"
	"bank-ledger/pkg/engine"
	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/logging"
	"bank-ledger/pkg/readcache"
)

// Deps are the collaborators the server is wired with.
type Deps struct {
	Engine   *engine.Engine
	Accounts ledger.AccountStore
	Users    ledger.UserDirectory
	Cache    readcache.Cache
	Auth     auth.Authenticator
	Logger   *logging.Logger
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// CacheTTL bounds how stale a cached display read may be.
	CacheTTL time.Duration
}

// DefaultServerConfig returns the defaults used by cmd/server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		CacheTTL:     30 * time.Second,
	}
}

// Server is the HTTP front of the ledger.
type Server struct {
	deps   Deps
	config ServerConfig
	logger *logging.Logger
	server *http.Server
}

// NewServer builds the router and the underlying http.Server.
func NewServer(deps Deps, config ServerConfig) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}

	s := &Server{
		deps:   deps,
		config: config,
		logger: deps.Logger.Named("api"),
	}

	r := mux.NewRouter()
	r.Use(observe(s.logger))

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(authenticate(deps.Auth))

	v1.HandleFunc("", s.handleRoot).Methods(http.MethodGet)
	v1.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	v1.HandleFunc("/users", s.handleCreateUser).Methods(http.MethodPost)
	v1.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)

	v1.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)

	v1.HandleFunc("/transactions", s.handleTransfer).Methods(http.MethodPost)
	v1.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	v1.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("listening", zap.String("addr", s.config.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "ok", nil)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "successfully connected to server", nil)
}
