// Package server assembles the relay's HTTP surface: two routes, a JSON
// 404 for everything else, and the auth/logging middleware chain.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/ststx-signer/internal/server/handler"
	"github.com/alanyoungcy/ststx-signer/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port      int
	AuthToken string // if empty, authentication is disabled
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health *handler.HealthHandler
	Swap   *handler.SwapHandler
}

// Server is the relay's HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. The health
// endpoint is open; the broadcast endpoint sits behind bearer auth. Any
// other route or method gets the JSON not_found envelope rather than the
// mux's plain-text defaults.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handlers.Health.HealthCheck)
	mux.Handle("POST /sign-and-broadcast",
		middleware.Auth(cfg.AuthToken)(http.HandlerFunc(handlers.Swap.SignAndBroadcast)))

	// Wrong-method requests on known paths must 404 like everything
	// else, so the method-free patterns below outrank the mux's builtin
	// 405 handling.
	mux.HandleFunc("/health", notFound)
	mux.HandleFunc("/sign-and-broadcast", notFound)
	mux.HandleFunc("/", notFound)

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Handler returns the server's root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"ok":false,"status":"failed","reason":"not_found"}`))
}
