package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Shawm69/fbigposter/internal"
	pkgconfig "github.com/Shawm69/fbigposter/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("init") {
		return internal.Bootstrap(cfg)
	}
	if cmd.Bool("cycle") {
		return internal.RunCycleOnce(ctx, cfg)
	}
	if cmd.Bool("mcp") {
		return internal.RunMCP(ctx, cfg)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "fbigposter",
		Usage:  "Social media learning loop: metrics analysis, versioned tactics, and layered generation context",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "init",
				Usage: "Bootstrap missing workspace documents and exit",
			},
			&cli.BoolFlag{
				Name:  "cycle",
				Usage: "Run one full nightly cycle and exit",
			},
			&cli.BoolFlag{
				Name:  "mcp",
				Usage: "Serve tool operations over MCP stdio instead of HTTP",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
