// Package main provides the revbench command line entry point.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/layer-3/revbench/cmd/revbench/commands"
	"github.com/layer-3/revbench/internal/app"
	"github.com/layer-3/revbench/internal/config"
)

const version = "0.1.0"

func main() {
	cmd := &cli.Command{
		Name:           "revbench",
		Usage:          "Benchmark token revocation registries",
		Version:        version,
		DefaultCommand: "run",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Insert, query and probe tokens against every registry variant",
				Flags: runFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg := config.Load()
					applyRunFlags(cmd, cfg)
					container := app.NewContainer(cfg)
					return commands.RunBenchmark(ctx, container, commands.DefaultOutput())
				},
			},
			{
				Name:  "sizing",
				Usage: "Print bloom filter dimensions for a capacity and false positive rate",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "capacity",
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "Expected number of elements",
					},
					&cli.FloatFlag{
						Name:    "fp-rate",
						Aliases: []string{"p"},
						Value:   0.01,
						Usage:   "Target false positive rate, in (0, 1)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSizing(
						commands.DefaultOutput(),
						cmd.Int("capacity"),
						cmd.Float("fp-rate"),
						cmd.String("format"),
					)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "tokens",
			Aliases: []string{"n"},
			Usage:   "Number of tokens to insert and query (NUM_TOKENS)",
		},
		&cli.IntFlag{
			Name:  "probes",
			Usage: "Number of never-inserted tokens to probe for false positives (PROBE_TOKENS)",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Store behind the registries: 'redis' or 'memory' (BACKEND)",
		},
		&cli.StringSliceFlag{
			Name:  "registry",
			Usage: "Registry variant to benchmark: 'exact', 'bloom' or 'bloom-local'; repeatable",
		},
		&cli.IntFlag{
			Name:  "capacity",
			Usage: "Bloom filter capacity, defaults to the token count (BLOOM_CAPACITY)",
		},
		&cli.FloatFlag{
			Name:  "fp-rate",
			Usage: "Bloom filter target false positive rate (BLOOM_FP_RATE)",
		},
		&cli.StringFlag{
			Name:  "id-format",
			Usage: "Token id format: 'uuid' or 'ulid' (TOKEN_ID_FORMAT)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: 'text' or 'json' (REPORT_FORMAT)",
		},
		&cli.BoolFlag{
			Name:  "publish",
			Usage: "Publish every report as an event (PUBLISH_RESULTS)",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write report metrics to this file in text exposition format (METRICS_FILE)",
		},
	}
}

// applyRunFlags overrides environment configuration with explicitly set flags
func applyRunFlags(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("tokens") {
		cfg.Tokens = cmd.Int("tokens")
	}
	if cmd.IsSet("probes") {
		cfg.Probes = cmd.Int("probes")
	}
	if cmd.IsSet("backend") {
		cfg.Backend = cmd.String("backend")
	}
	if cmd.IsSet("registry") {
		cfg.Registries = cmd.StringSlice("registry")
	}
	if cmd.IsSet("capacity") {
		cfg.BloomCapacity = cmd.Int("capacity")
	}
	if cmd.IsSet("fp-rate") {
		cfg.BloomFPRate = cmd.Float("fp-rate")
	}
	if cmd.IsSet("id-format") {
		cfg.TokenIDFormat = cmd.String("id-format")
	}
	if cmd.IsSet("format") {
		cfg.ReportFormat = cmd.String("format")
	}
	if cmd.IsSet("publish") {
		cfg.PublishResults = cmd.Bool("publish")
	}
	if cmd.IsSet("metrics-file") {
		cfg.MetricsFile = cmd.String("metrics-file")
	}
}
