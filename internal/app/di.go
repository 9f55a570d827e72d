// Package app provides the dependency injection container that assembles a benchmark run.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/layer-3/revbench/adapters/events"
	"github.com/layer-3/revbench/adapters/metrics"
	"github.com/layer-3/revbench/adapters/registry"
	"github.com/layer-3/revbench/adapters/store"
	"github.com/layer-3/revbench/adapters/tokenizer"
	"github.com/layer-3/revbench/internal/config"
	"github.com/layer-3/revbench/ports"
	"github.com/layer-3/revbench/service"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "revbench"

// Container holds the benchmark dependencies. Components are created on first access.
type Container struct {
	config    *config.Config
	logOutput io.Writer

	logger       *slog.Logger
	redisOptions *redis.Options
	tokenSource  *tokenizer.Generator
	publisher    *events.WatermillPublisher
	pubClient    *redis.Client
	recorder     *metrics.PrometheusRecorder
	benchmark    *service.BenchmarkService

	mu               sync.Mutex
	loggerInit       sync.Once
	redisOptionsInit sync.Once
	tokenSourceInit  sync.Once
	publisherInit    sync.Once
	recorderInit     sync.Once
	benchmarkInit    sync.Once
	initErrors       map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		logOutput:  os.Stderr,
		initErrors: make(map[string]error),
	}
}

// SetLogOutput redirects the logger. It has no effect once the logger exists.
func (c *Container) SetLogOutput(w io.Writer) {
	c.logOutput = w
}

// Config returns the benchmark configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// RedisOptions returns the parsed Redis connection options.
func (c *Container) RedisOptions() (*redis.Options, error) {
	c.redisOptionsInit.Do(func() {
		opts, err := redis.ParseURL(c.config.RedisConnectionURL())
		if err != nil {
			c.setInitError("redisOptions", fmt.Errorf("failed to parse redis url: %w", err))
			return
		}
		c.redisOptions = opts
	})
	if err := c.initError("redisOptions"); err != nil {
		return nil, err
	}
	return c.redisOptions, nil
}

// TokenSource returns the token generator.
func (c *Container) TokenSource() (*tokenizer.Generator, error) {
	c.tokenSourceInit.Do(func() {
		gen, err := tokenizer.NewGenerator(
			tokenizer.WithAudience(c.config.TokenAudience),
			tokenizer.WithTTL(c.config.TokenTTL),
			tokenizer.WithIDFormat(tokenizer.IDFormat(c.config.TokenIDFormat)),
		)
		if err != nil {
			c.setInitError("tokenSource", err)
			return
		}
		c.tokenSource = gen
	})
	if err := c.initError("tokenSource"); err != nil {
		return nil, err
	}
	return c.tokenSource, nil
}

// ReportPublisher returns the report publisher, or nil when publishing is disabled.
// Reports go to a Redis stream with the redis backend and to an in-process
// channel otherwise.
func (c *Container) ReportPublisher() (*events.WatermillPublisher, error) {
	if !c.config.PublishResults {
		return nil, nil
	}
	c.publisherInit.Do(func() {
		pub, err := c.initPublisher()
		if err != nil {
			c.setInitError("publisher", err)
			return
		}
		c.publisher = events.NewWatermillPublisher(pub, c.config.ResultsTopic)
	})
	if err := c.initError("publisher"); err != nil {
		return nil, err
	}
	return c.publisher, nil
}

// MetricsRecorder returns the metrics recorder, or nil when no metrics file is configured.
func (c *Container) MetricsRecorder() (*metrics.PrometheusRecorder, error) {
	if c.config.MetricsFile == "" {
		return nil, nil
	}
	c.recorderInit.Do(func() {
		rec, err := metrics.NewPrometheusRecorder(MetricsNamespace)
		if err != nil {
			c.setInitError("recorder", err)
			return
		}
		c.recorder = rec
	})
	if err := c.initError("recorder"); err != nil {
		return nil, err
	}
	return c.recorder, nil
}

// BenchmarkService returns the benchmark harness wired with the optional
// publisher and metrics recorder.
func (c *Container) BenchmarkService() (*service.BenchmarkService, error) {
	c.benchmarkInit.Do(func() {
		svc, err := c.initBenchmarkService()
		if err != nil {
			c.setInitError("benchmark", err)
			return
		}
		c.benchmark = svc
	})
	if err := c.initError("benchmark"); err != nil {
		return nil, err
	}
	return c.benchmark, nil
}

// Variants builds a fresh registry for every configured variant. Each variant
// owns its store connection since the harness closes it after measuring.
func (c *Container) Variants() ([]service.Variant, error) {
	variants := make([]service.Variant, 0, len(c.config.Registries))
	for _, name := range c.config.Registries {
		v, err := c.newVariant(name)
		if err != nil {
			for _, built := range variants {
				_ = built.Registry.Close()
			}
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func (c *Container) newVariant(name string) (service.Variant, error) {
	switch name {
	case config.RegistryExact:
		st, err := c.newStore()
		if err != nil {
			return service.Variant{}, err
		}
		return service.Variant{
			Name:     "Exact (" + c.config.Backend + ")",
			Registry: registry.NewExact(st, c.config.ExactKeyPrefix),
		}, nil

	case config.RegistryBloom:
		st, err := c.newStore()
		if err != nil {
			return service.Variant{}, err
		}
		capacity := c.config.FilterCapacity()
		bloom, err := registry.NewBloom(st, c.config.BloomKey, capacity, c.config.BloomFPRate)
		if err != nil {
			_ = st.Close()
			return service.Variant{}, fmt.Errorf("failed to create bloom registry: %w", err)
		}
		size := bloom.Size()
		c.Logger().Info("bloom filter sized",
			slog.Uint64("capacity", size.Capacity),
			slog.Float64("fp_rate", size.FPRate),
			slog.Uint64("bits", size.Bits),
			slog.Uint64("hashes", uint64(size.Hashes)),
			slog.Uint64("bytes", size.Bytes()),
			slog.Float64("estimated_fp_rate", size.EstimatedFalsePositiveRate(capacity)),
		)
		return service.Variant{
			Name:     "Bloom (" + c.config.Backend + ")",
			Registry: bloom,
		}, nil

	case config.RegistryLocalBloom:
		bloom, err := registry.NewLocalBloom(c.config.FilterCapacity(), c.config.BloomFPRate)
		if err != nil {
			return service.Variant{}, fmt.Errorf("failed to create local bloom registry: %w", err)
		}
		return service.Variant{
			Name:     "Bloom (in-process)",
			Registry: bloom,
		}, nil

	default:
		return service.Variant{}, fmt.Errorf("unknown registry %q", name)
	}
}

// storeBackend backs either registry
type storeBackend interface {
	ports.Store
	ports.BitStore
}

func (c *Container) newStore() (storeBackend, error) {
	if c.config.Backend == config.BackendMemory {
		return store.NewMemoryStore(), nil
	}
	opts, err := c.RedisOptions()
	if err != nil {
		return nil, err
	}
	return store.NewRedisStore(redis.NewClient(opts)), nil
}

// Shutdown releases the resources held by the container.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("publisher close: %w", err))
		}
	}

	if c.pubClient != nil {
		if err := c.pubClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(c.logOutput, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) initPublisher() (message.Publisher, error) {
	logger := watermill.NewSlogLogger(c.Logger())

	if c.config.Backend != config.BackendRedis {
		return gochannel.NewGoChannel(gochannel.Config{}, logger), nil
	}

	opts, err := c.RedisOptions()
	if err != nil {
		return nil, err
	}
	c.pubClient = redis.NewClient(opts)

	pub, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: c.pubClient,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}
	return pub, nil
}

func (c *Container) initBenchmarkService() (*service.BenchmarkService, error) {
	source, err := c.TokenSource()
	if err != nil {
		return nil, fmt.Errorf("failed to get token source for benchmark: %w", err)
	}

	var opts []service.Option
	pub, err := c.ReportPublisher()
	if err != nil {
		return nil, fmt.Errorf("failed to get publisher for benchmark: %w", err)
	}
	if pub != nil {
		opts = append(opts, service.WithPublisher(pub))
	}
	rec, err := c.MetricsRecorder()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics recorder for benchmark: %w", err)
	}
	if rec != nil {
		opts = append(opts, service.WithMetrics(rec))
	}

	return service.NewBenchmarkService(source, c.Logger(), opts...), nil
}

func (c *Container) setInitError(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[name] = err
}

func (c *Container) initError(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}
