package ports

import (
	"context"

	"github.com/layer-3/revbench/core"
)

// TokenSource produces synthetic token corpora
type TokenSource interface {
	// Generate returns n distinct tokens
	Generate(ctx context.Context, n int) ([]core.Token, error)
}
