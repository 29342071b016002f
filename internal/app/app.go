// Package app provides the top-level application lifecycle for the signer
// relay. It wires dependencies, starts the HTTP server and the optional
// reconciler, and tears everything down on shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/ststx-signer/internal/config"
	"github.com/alanyoungcy/ststx-signer/internal/server"
	"github.com/alanyoungcy/ststx-signer/internal/server/handler"
)

// shutdownGrace is how long in-flight requests get to finish on shutdown.
const shutdownGrace = 10 * time.Second

// App is the root application object.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the HTTP server and, when enabled,
// the reconciler, then blocks until ctx is cancelled. On return it runs
// all cleanup functions.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting signer relay",
		slog.Int("port", a.cfg.Server.Port),
		slog.String("network", a.cfg.Signer.Network),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	defer a.Close()

	srv := server.NewServer(server.Config{
		Port:      a.cfg.Server.Port,
		AuthToken: a.cfg.Server.AuthToken,
	}, server.Handlers{
		Health: handler.NewHealthHandler(),
		Swap:   handler.NewSwapHandler(deps.Pipeline, deps.IdemCache, a.cfg.Server.RequestTimeout.Duration, a.logger),
	}, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if deps.Reconciler != nil {
		g.Go(func() error {
			if err := deps.Reconciler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
