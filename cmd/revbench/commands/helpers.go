// Package commands contains CLI command implementations for revbench.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/layer-3/revbench/internal/app"
)

// DefaultOutput is where reports are written
func DefaultOutput() io.Writer {
	return os.Stdout
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
