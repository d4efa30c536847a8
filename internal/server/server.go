package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MarcelKueck/shareyourspace-mvp/internal/auth"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/config"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/http/handlers"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/mail"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/middleware"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/service"
	"github.com/MarcelKueck/shareyourspace-mvp/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires middleware, routes, and the auth service into a ready server.
func New(cfg config.Config, store storage.UserStore, mailer mail.Mailer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(time.Now())
	health.Register(mux)

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	svc := service.New(store, hasher, tokens, mailer, cfg, logger)

	authHandler := handlers.NewAuthHandler(svc, tokens, &cfg, logger)
	authHandler.Register(mux)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
