// Package config provides benchmark configuration through environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/allisson/go-env"
	"github.com/jellydator/validation"
	"github.com/joho/godotenv"
	"github.com/layer-3/revbench/core"
)

// Backends
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Registry variants
const (
	RegistryExact      = "exact"
	RegistryBloom      = "bloom"
	RegistryLocalBloom = "bloom-local"
)

// Config holds all benchmark configuration.
type Config struct {
	// Tokens is the number of tokens inserted and queried.
	Tokens int
	// Probes is the number of never-inserted tokens used to count false positives.
	Probes int
	// TokenTTL is the validity window of generated tokens.
	TokenTTL time.Duration
	// TokenAudience is the audience claim of generated tokens.
	TokenAudience string
	// TokenIDFormat is the jti format, "uuid" or "ulid".
	TokenIDFormat string

	// Backend selects the store behind the registries, "redis" or "memory".
	Backend string
	// Registries lists the variants to benchmark, in order.
	Registries []string

	// RedisURL takes precedence over host, port and db when set.
	RedisURL  string
	RedisHost string
	RedisPort int
	RedisDB   int

	// BloomCapacity is the expected element count; zero means Tokens.
	BloomCapacity int
	// BloomFPRate is the target false positive rate.
	BloomFPRate float64
	// BloomKey is the key of the filter bit array.
	BloomKey string
	// ExactKeyPrefix prefixes every key of the exact registry.
	ExactKeyPrefix string

	// ReportFormat is "text" or "json".
	ReportFormat string
	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// PublishResults publishes every report as an event.
	PublishResults bool
	// ResultsTopic is the topic reports are published on.
	ResultsTopic string
	// MetricsFile is where report metrics are written in text exposition format.
	MetricsFile string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	loadDotEnv()

	return &Config{
		// Workload
		Tokens:        env.GetInt("NUM_TOKENS", 1_000_000),
		Probes:        env.GetInt("PROBE_TOKENS", 10_000),
		TokenTTL:      env.GetDuration("TOKEN_TTL_SECONDS", 1209600, time.Second),
		TokenAudience: env.GetString("TOKEN_AUDIENCE", "foo-bar"),
		TokenIDFormat: env.GetString("TOKEN_ID_FORMAT", "uuid"),

		// Backend
		Backend:    env.GetString("BACKEND", BackendRedis),
		Registries: []string{RegistryExact, RegistryBloom},

		// Redis
		RedisURL:  env.GetString("REDIS_URL", ""),
		RedisHost: env.GetString("REDIS_HOST", "localhost"),
		RedisPort: env.GetInt("REDIS_PORT", 6379),
		RedisDB:   env.GetInt("REDIS_DB", 0),

		// Registries
		BloomCapacity:  env.GetInt("BLOOM_CAPACITY", 0),
		BloomFPRate:    env.GetFloat64("BLOOM_FP_RATE", 0.01),
		BloomKey:       env.GetString("BLOOM_KEY", "jwt-blacklist:bloom"),
		ExactKeyPrefix: env.GetString("EXACT_KEY_PREFIX", "jwt-blacklist:"),

		// Output
		ReportFormat: env.GetString("REPORT_FORMAT", "text"),
		LogLevel:     env.GetString("LOG_LEVEL", "info"),

		// Events and metrics
		PublishResults: env.GetBool("PUBLISH_RESULTS", false),
		ResultsTopic:   env.GetString("RESULTS_TOPIC", "revbench.results"),
		MetricsFile:    env.GetString("METRICS_FILE", ""),
	}
}

// Validate checks the configuration. Errors wrap core.ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Tokens,
			validation.Min(0).Error("tokens must not be negative"),
		),
		validation.Field(&c.Probes,
			validation.Min(0).Error("probes must not be negative"),
		),
		validation.Field(&c.TokenTTL,
			validation.Required.Error("token ttl is required"),
			validation.Min(time.Duration(0)).Exclusive().Error("token ttl must be positive"),
		),
		validation.Field(&c.TokenIDFormat,
			validation.Required.Error("token id format is required"),
			validation.In("uuid", "ulid").Error("token id format must be uuid or ulid"),
		),
		validation.Field(&c.Backend,
			validation.Required.Error("backend is required"),
			validation.In(BackendRedis, BackendMemory).Error("backend must be redis or memory"),
		),
		validation.Field(&c.Registries,
			validation.Required.Error("at least one registry is required"),
			validation.Each(
				validation.In(RegistryExact, RegistryBloom, RegistryLocalBloom).
					Error("registry must be exact, bloom or bloom-local"),
			),
		),
		validation.Field(&c.BloomCapacity,
			validation.Min(0).Error("bloom capacity must not be negative"),
		),
		validation.Field(&c.BloomFPRate,
			validation.Required.Error("bloom false positive rate must be in (0, 1)"),
			validation.Min(0.0).Exclusive().Error("bloom false positive rate must be in (0, 1)"),
			validation.Max(1.0).Exclusive().Error("bloom false positive rate must be in (0, 1)"),
		),
		validation.Field(&c.ReportFormat,
			validation.In("text", "json").Error("report format must be text or json"),
		),
		validation.Field(&c.LogLevel,
			validation.In("debug", "info", "warn", "error").Error("log level must be debug, info, warn or error"),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	return nil
}

// FilterCapacity returns the expected element count of the bloom filter
func (c *Config) FilterCapacity() uint64 {
	if c.BloomCapacity > 0 {
		return uint64(c.BloomCapacity)
	}
	return uint64(max(c.Tokens, 1))
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort))
}

// RedisConnectionURL returns RedisURL, or a URL built from host, port and db
func (c *Config) RedisConnectionURL() string {
	if c.RedisURL != "" {
		return c.RedisURL
	}
	return fmt.Sprintf("redis://%s/%d", c.RedisAddr(), c.RedisDB)
}

// loadDotEnv searches for a .env file from the current directory up to the
// root directory and loads the first one found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
