package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/layer-3/revbench/internal/app"
	"github.com/layer-3/revbench/service"
)

// RunBenchmark benchmarks every configured registry variant and writes the
// reports to out. Variant failures are rendered and returned joined once all
// variants have run.
func RunBenchmark(ctx context.Context, container *app.Container, out io.Writer) error {
	cfg := container.Config()
	logger := container.Logger()
	defer closeContainer(container, logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := container.BenchmarkService()
	if err != nil {
		return fmt.Errorf("failed to create benchmark: %w", err)
	}
	variants, err := container.Variants()
	if err != nil {
		return fmt.Errorf("failed to create registries: %w", err)
	}

	logger.Info("starting benchmark",
		slog.Int("tokens", cfg.Tokens),
		slog.Int("probes", cfg.Probes),
		slog.String("backend", cfg.Backend),
		slog.Any("registries", cfg.Registries),
	)

	reports, runErr := svc.Run(ctx, variants, cfg.Tokens, cfg.Probes)
	if reports == nil && runErr != nil {
		return runErr
	}

	if err := service.Render(out, reports, cfg.ReportFormat); err != nil {
		return fmt.Errorf("failed to render reports: %w", err)
	}

	if cfg.MetricsFile != "" {
		rec, err := container.MetricsRecorder()
		if err != nil {
			return err
		}
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics file",
				slog.String("path", cfg.MetricsFile),
				slog.Any("error", err),
			)
		}
	}

	return runErr
}
