package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/Arkadia-Spiral-Grid/arkadia-ui/internal"
	pkgconfig "github.com/Arkadia-Spiral-Grid/arkadia-ui/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func commune(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if url := cmd.String("url"); url != "" {
		cfg.Client.URL = url
		if err := cfg.Client.Validate(); err != nil {
			return fmt.Errorf("invalid --url: %w", err)
		}
	}

	return internal.RunCommune(ctx,
		internal.WithConfig(cfg),
		internal.WithStdio(os.Stdin, os.Stdout),
		internal.WithLogOutput(os.Stderr),
	)
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol.
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "arkadia",
		Usage:   "Arkana resonance chat server, terminal client and MCP tools",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP and WebSocket server",
				Action: serve,
			},
			{
				Name:   "commune",
				Usage:  "Chat with Arkana from the terminal, one message per line",
				Action: commune,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "url",
						Usage:   "WebSocket URL of the Arkana endpoint (overrides client.url)",
						Sources: cli.EnvVars("ARKADIA_URL"),
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve resonance tools over MCP stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
