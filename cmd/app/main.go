package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/hostsub/internal"
	pkgconfig "github.com/starford/hostsub/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
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

// withApp wires the components for a one-shot command. Logs go to stderr so
// stdout carries only the command output.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		app, err := internal.New(internal.WithConfig(cfg), internal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(ctx, cmd, app)
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "hostsub",
		Usage:   "Manage the hosts file and report network address changes",
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
				Usage:  "Run the HTTP API, address monitor and hosts watcher",
				Action: serve,
			},
			hostsCommand(),
			{
				Name:   "addrs",
				Usage:  "List routable network addresses",
				Action: withApp(listAddresses),
			},
			{
				Name:   "diff",
				Usage:  "Show addresses that changed since the last notification",
				Action: withApp(diffAddresses),
			},
			{
				Name:   "check",
				Usage:  "Run one detect-and-notify cycle",
				Action: withApp(checkAddresses),
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: withApp(serveMCP),
			},
			configCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
