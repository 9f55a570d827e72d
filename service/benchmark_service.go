package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/layer-3/revbench/core"
	"github.com/layer-3/revbench/ports"
)

// Variant is a named registry under benchmark
type Variant struct {
	Name     string
	Registry ports.ManagedRegistry
}

// BenchmarkService drives identical insert and query workloads against
// registry variants, one variant at a time.
type BenchmarkService struct {
	source    ports.TokenSource
	publisher ports.ReportPublisher
	metrics   ports.MetricsRecorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a BenchmarkService
type Option func(*BenchmarkService)

// WithPublisher publishes every finished report
func WithPublisher(p ports.ReportPublisher) Option {
	return func(s *BenchmarkService) { s.publisher = p }
}

// WithMetrics records every finished report
func WithMetrics(m ports.MetricsRecorder) Option {
	return func(s *BenchmarkService) { s.metrics = m }
}

// WithClock sets the clock used to derive token TTLs
func WithClock(now func() time.Time) Option {
	return func(s *BenchmarkService) { s.now = now }
}

// NewBenchmarkService creates a new benchmark service
func NewBenchmarkService(source ports.TokenSource, logger *slog.Logger, opts ...Option) *BenchmarkService {
	s := &BenchmarkService{
		source: source,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// corpus is the precomputed workload shared by every variant of a run
type corpus struct {
	keys   []string
	ttls   []time.Duration
	probes []string
}

// Run benchmarks every variant with the same tokens inserted and queried,
// plus probes never-inserted tokens for false positives. Each variant is
// closed once measured. A failing variant does not stop the others; the
// returned error joins every variant failure.
func (s *BenchmarkService) Run(ctx context.Context, variants []Variant, tokens, probes int) ([]core.Report, error) {
	c, err := s.prepare(ctx, tokens, probes)
	if err != nil {
		for _, v := range variants {
			s.closeRegistry(v)
		}
		return nil, err
	}

	reports := make([]core.Report, 0, len(variants))
	var errs []error
	for _, v := range variants {
		report := s.runVariant(ctx, v, c)
		if report.Failed() {
			s.logger.Error("benchmark failed",
				slog.String("registry", v.Name),
				slog.Any("error", report.Err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", v.Name, report.Err))
		}
		s.emit(ctx, report)
		reports = append(reports, report)
	}

	return reports, errors.Join(errs...)
}

// prepare generates the corpus and derives keys and TTLs so that no timed
// window includes generation or key derivation.
func (s *BenchmarkService) prepare(ctx context.Context, tokens, probes int) (*corpus, error) {
	if tokens < 0 || probes < 0 {
		return nil, fmt.Errorf("token and probe counts must not be negative: %w", core.ErrInvalidConfig)
	}

	generated, err := s.source.Generate(ctx, tokens+probes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	now := s.now()
	c := &corpus{
		keys:   make([]string, tokens),
		ttls:   make([]time.Duration, tokens),
		probes: make([]string, probes),
	}
	for i, tok := range generated {
		key, err := tok.InvalidationKey()
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		if i < tokens {
			c.keys[i] = key
			c.ttls[i] = tok.TTL(now)
		} else {
			c.probes[i-tokens] = key
		}
	}

	s.logger.Debug("corpus generated",
		slog.Int("tokens", tokens),
		slog.Int("probes", probes),
	)
	return c, nil
}

func (s *BenchmarkService) runVariant(ctx context.Context, v Variant, c *corpus) core.Report {
	report := core.Report{Registry: v.Name, StartedAt: s.now()}
	defer s.closeRegistry(v)

	fail := func(phase string, err error) core.Report {
		return core.Report{
			Registry:  v.Name,
			StartedAt: report.StartedAt,
			Err:       fmt.Errorf("%s phase: %w", phase, err),
		}
	}

	// Setup
	if err := v.Registry.Reset(ctx); err != nil {
		return fail("setup", err)
	}
	baseline, err := v.Registry.MemoryUsage(ctx)
	if err != nil {
		return fail("setup", err)
	}

	// Insert
	s.logger.Debug("insert phase", slog.String("registry", v.Name), slog.Int("tokens", len(c.keys)))
	start := time.Now()
	for i, key := range c.keys {
		if err := v.Registry.Invalidate(ctx, key, c.ttls[i]); err != nil {
			return fail("insert", err)
		}
	}
	report.Insert = core.Result{
		Operation: core.OperationInsert,
		Count:     len(c.keys),
		Elapsed:   time.Since(start),
	}

	used, err := v.Registry.MemoryUsage(ctx)
	if err != nil {
		return fail("insert", err)
	}
	report.MemoryBytes = max(used-baseline, 0)
	report.Insert.MemoryBytes = report.MemoryBytes

	// Query
	s.logger.Debug("query phase", slog.String("registry", v.Name), slog.Int("tokens", len(c.keys)))
	var falseNegatives int
	start = time.Now()
	for _, key := range c.keys {
		ok, err := v.Registry.IsInvalidated(ctx, key)
		if err != nil {
			return fail("query", err)
		}
		if !ok {
			falseNegatives++
		}
	}
	report.Query = core.Result{
		Operation:      core.OperationQuery,
		Count:          len(c.keys),
		Elapsed:        time.Since(start),
		FalseNegatives: falseNegatives,
	}
	if falseNegatives > 0 {
		report.Err = fmt.Errorf("query phase: %d of %d tokens: %w", falseNegatives, len(c.keys), core.ErrFalseNegative)
		return report
	}

	// Probe
	s.logger.Debug("probe phase", slog.String("registry", v.Name), slog.Int("probes", len(c.probes)))
	var falsePositives int
	start = time.Now()
	for _, key := range c.probes {
		ok, err := v.Registry.IsInvalidated(ctx, key)
		if err != nil {
			return fail("probe", err)
		}
		if ok {
			falsePositives++
		}
	}
	report.Probe = core.Result{
		Operation:      core.OperationProbe,
		Count:          len(c.probes),
		Elapsed:        time.Since(start),
		FalsePositives: falsePositives,
	}

	// Teardown
	if err := v.Registry.Reset(ctx); err != nil {
		s.logger.Warn("failed to reset registry",
			slog.String("registry", v.Name),
			slog.Any("error", err),
		)
	}

	return report
}

func (s *BenchmarkService) closeRegistry(v Variant) {
	if err := v.Registry.Close(); err != nil {
		s.logger.Warn("failed to close registry",
			slog.String("registry", v.Name),
			slog.Any("error", err),
		)
	}
}

// emit hands a finished report to the configured publisher and metrics
// recorder. Their failures are logged and never fail the run.
func (s *BenchmarkService) emit(ctx context.Context, report core.Report) {
	if s.metrics != nil {
		s.metrics.RecordReport(report)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, report); err != nil {
			s.logger.Warn("failed to publish report",
				slog.String("registry", report.Registry),
				slog.Any("error", err),
			)
		}
	}
}
