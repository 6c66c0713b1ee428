// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/api"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/commune"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/essence"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/reply"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/sse"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/store"
)

const (
	pulseThrottle   = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Run starts the HTTP and WebSocket server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := newLogger(app.logOut, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("commune_path", cfg.Commune.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	catalog, digest := reply.DefaultCatalog(), ""
	if cfg.Commune.CatalogPath != "" {
		catalog, digest, err = reply.LoadCatalog(cfg.Commune.CatalogPath)
		if err != nil {
			return fmt.Errorf("load reply catalog: %w", err)
		}
	}
	engine := reply.NewEngine(catalog, reply.NewSource(cfg.Commune.Seed), cfg.Commune.Delays)

	broker := sse.NewBroker(pulseThrottle)
	defer broker.Close()

	svc := essence.NewService(st, broker)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	arkana := commune.NewHandler(st, engine, logger,
		commune.WithNotifier(broker),
		commune.WithWelcome(cfg.Commune.Welcome),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := st.ListHints(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	r.With(api.AuthMiddleware(cfg.Auth.AuthEnabled(), cfg.Auth.Token)).Get(cfg.Commune.Path, arkana.ServeHTTP)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Commune.CatalogPath != "" {
		g.Go(func() error {
			err := reply.WatchCatalog(gCtx, cfg.Commune.CatalogPath, digest, logger, func(c *reply.Catalog, _ string) {
				engine.SetCatalog(c)
			})
			if err != nil {
				logger.Warn("catalog watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		arkana.Close()
		cancel()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
