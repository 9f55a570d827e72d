package tokenizer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/revbench/core"
	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultAudience is the audience claim of generated tokens
const DefaultAudience = "foo-bar"

// DefaultTTL is the validity window of generated tokens
const DefaultTTL = 14 * 24 * time.Hour

// IDFormat selects how token ids (jti) are generated
type IDFormat string

const (
	IDFormatUUID IDFormat = "uuid"
	IDFormatULID IDFormat = "ulid"
)

// chunkSize is the number of tokens a single worker generates per task
const chunkSize = 16 * 1024

// Generator produces synthetic decoded JWT claims
type Generator struct {
	audience string
	ttl      time.Duration
	format   IDFormat
	now      func() time.Time
	workers  int
}

// Option configures a Generator
type Option func(*Generator)

// WithAudience sets the audience claim
func WithAudience(aud string) Option {
	return func(g *Generator) { g.audience = aud }
}

// WithTTL sets the validity window measured from generation time
func WithTTL(ttl time.Duration) Option {
	return func(g *Generator) { g.ttl = ttl }
}

// WithIDFormat sets the jti format
func WithIDFormat(f IDFormat) Option {
	return func(g *Generator) { g.format = f }
}

// WithClock sets the clock used for iat/exp
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithWorkers sets the number of parallel workers
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// NewGenerator creates a new token generator
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		audience: DefaultAudience,
		ttl:      DefaultTTL,
		format:   IDFormatUUID,
		now:      time.Now,
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(g)
	}

	switch g.format {
	case IDFormatUUID, IDFormatULID:
	default:
		return nil, fmt.Errorf("unknown id format %q: %w", g.format, core.ErrInvalidConfig)
	}
	if g.workers < 1 {
		g.workers = 1
	}
	return g, nil
}

// Generate returns n tokens with distinct ids
func (g *Generator) Generate(ctx context.Context, n int) ([]core.Token, error) {
	if n < 0 {
		return nil, fmt.Errorf("token count must not be negative, got %d: %w", n, core.ErrInvalidConfig)
	}

	tokens := make([]core.Token, n)
	now := g.now()
	exp := jwt.NewNumericDate(now.Add(g.ttl))
	iat := jwt.NewNumericDate(now)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				tokens[i] = core.Token{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        g.newID(),
						Audience:  jwt.ClaimStrings{g.audience},
						ExpiresAt: exp,
						IssuedAt:  iat,
					},
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return tokens, nil
}

func (g *Generator) newID() string {
	if g.format == IDFormatULID {
		return ulid.Make().String()
	}
	return uuid.New().String()
}
