package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/revbench/core"
)

func TestLocalBloom_Config(t *testing.T) {
	_, err := NewLocalBloom(0, 0.01)
	assert.ErrorIs(t, err, core.ErrInvalidFilterConfig)

	_, err = NewLocalBloom(1000, 1)
	assert.ErrorIs(t, err, core.ErrInvalidFilterConfig)
}

func TestLocalBloom_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r, err := NewLocalBloom(1000, 0.01)
	require.NoError(t, err)

	used, err := r.MemoryUsage(ctx)
	require.NoError(t, err)
	assert.Zero(t, used)

	ok, err := r.IsInvalidated(ctx, "foo-bar:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Invalidate(ctx, "foo-bar:1", time.Hour))

	ok, err = r.IsInvalidated(ctx, "foo-bar:1")
	require.NoError(t, err)
	assert.True(t, ok)

	used, err = r.MemoryUsage(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, used, int64(r.Size().Bytes()))

	require.NoError(t, r.Reset(ctx))
	ok, err = r.IsInvalidated(ctx, "foo-bar:1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}

func TestLocalBloom_FalsePositiveRate(t *testing.T) {
	ctx := context.Background()
	const n, probes, p = 10_000, 10_000, 0.01

	r, err := NewLocalBloom(n, p)
	require.NoError(t, err)

	for i := range n {
		key := fmt.Sprintf("foo-bar:in-%d", i)
		require.NoError(t, r.Invalidate(ctx, key, time.Hour))
		ok, err := r.IsInvalidated(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
	}

	var fp int
	for i := range probes {
		ok, err := r.IsInvalidated(ctx, fmt.Sprintf("foo-bar:out-%d", i))
		require.NoError(t, err)
		if ok {
			fp++
		}
	}
	assert.LessOrEqual(t, float64(fp)/probes, 2*p)
}

func BenchmarkLocalBloom_Invalidate(b *testing.B) {
	ctx := context.Background()
	r, err := NewLocalBloom(uint64(max(b.N, 1)), 0.01)
	if err != nil {
		b.Fatal(err)
	}
	keys := benchKeys(b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Invalidate(ctx, keys[i], time.Hour)
	}
}
