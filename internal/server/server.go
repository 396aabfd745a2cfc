package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/debt-ledger/internal/auth"
	"github.com/hongminglow/debt-ledger/internal/config"
	"github.com/hongminglow/debt-ledger/internal/directory"
	"github.com/hongminglow/debt-ledger/internal/http/handlers"
	"github.com/hongminglow/debt-ledger/internal/ledger"
	"github.com/hongminglow/debt-ledger/internal/middleware"
	"github.com/hongminglow/debt-ledger/internal/session"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, log logrus.FieldLogger) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the full routing tree. /health is served at the root,
// everything else under cfg.APIPrefix, and /debts requires a bearer token.
func NewHandler(cfg config.Config, store storage.Store, log logrus.FieldLogger) http.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	users := directory.New(store, log.WithField("component", "directory"), cfg.BcryptCost)
	debts := ledger.New(store, users, log.WithField("component", "ledger"))
	sessions := session.New(users, tokens, log.WithField("component", "session"))

	router := mux.NewRouter()
	handlers.NewHealthHandler(time.Now()).Register(router)

	api := router
	if cfg.APIPrefix != "" {
		api = router.PathPrefix(cfg.APIPrefix).Subrouter()
	}
	handlers.NewAuthHandler(sessions, log).Register(api)
	handlers.NewUserHandler(users, log).Register(api)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(tokens))
	handlers.NewDebtHandler(debts, log).Register(protected)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, router))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
