package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/essence"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/mcpserver"
	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal/store"
)

// RunMCP serves the MCP tools over stdio until stdin closes.
func RunMCP(_ context.Context, opts ...Option) error {
	app := newApplication(opts)

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(app.logOut, cfg.App.LogLevel)
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	logger.Info("MCP server starting", slog.String("storage_driver", cfg.Storage.Driver))
	return mcpserver.New(essence.NewService(st, nil), app.version).ServeStdio()
}
