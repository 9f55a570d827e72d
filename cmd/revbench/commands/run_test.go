package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/revbench/core"
	"github.com/layer-3/revbench/internal/app"
	"github.com/layer-3/revbench/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Tokens:         200,
		Probes:         100,
		TokenTTL:       time.Hour,
		TokenAudience:  "foo-bar",
		TokenIDFormat:  "uuid",
		Backend:        config.BackendMemory,
		Registries:     []string{config.RegistryExact, config.RegistryBloom},
		BloomFPRate:    0.01,
		BloomKey:       "jwt-blacklist:bloom",
		ExactKeyPrefix: "jwt-blacklist:",
		ReportFormat:   "text",
		LogLevel:       "error",
		ResultsTopic:   "revbench.results",
	}
}

func newContainer(cfg *config.Config) *app.Container {
	container := app.NewContainer(cfg)
	container.SetLogOutput(io.Discard)
	return container
}

func TestRunBenchmark(t *testing.T) {
	ctx := context.Background()

	t.Run("text-report", func(t *testing.T) {
		var out bytes.Buffer
		err := RunBenchmark(ctx, newContainer(memoryConfig()), &out)
		require.NoError(t, err)

		assert.Contains(t, out.String(), "Exact (memory):\nInsert 200 took ")
		assert.Contains(t, out.String(), "Bloom (memory):\nInsert 200 took ")
		assert.Contains(t, out.String(), "Querying 200 took ")
		assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("-----------\n")))
	})

	t.Run("json-report-with-metrics-file", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.ReportFormat = "json"
		cfg.Registries = []string{config.RegistryBloom}
		cfg.MetricsFile = filepath.Join(t.TempDir(), "revbench.prom")
		cfg.PublishResults = true

		var out bytes.Buffer
		err := RunBenchmark(ctx, newContainer(cfg), &out)
		require.NoError(t, err)

		var summaries []core.Summary
		require.NoError(t, json.Unmarshal(out.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, "Bloom (memory)", summaries[0].Registry)
		assert.Equal(t, 200, summaries[0].Tokens)
		assert.Equal(t, 100, summaries[0].Probes)
		assert.Zero(t, summaries[0].FalseNegatives)

		metrics, err := os.ReadFile(cfg.MetricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(metrics), "revbench_runs_total")
	})

	t.Run("invalid-config", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Backend = "memcached"

		var out bytes.Buffer
		err := RunBenchmark(ctx, newContainer(cfg), &out)
		require.ErrorIs(t, err, core.ErrInvalidConfig)
		assert.Empty(t, out.String())
	})

	t.Run("unreachable-redis", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Backend = config.BackendRedis
		cfg.RedisURL = "redis://127.0.0.1:1/0"

		var out bytes.Buffer
		err := RunBenchmark(ctx, newContainer(cfg), &out)
		require.ErrorIs(t, err, core.ErrStoreUnavailable)
		assert.Contains(t, out.String(), "Exact (redis) failed: ")
		assert.Contains(t, out.String(), "Bloom (redis) failed: ")
	})
}
