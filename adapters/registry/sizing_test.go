package registry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/revbench/core"
)

func TestSizing(t *testing.T) {
	tests := []struct {
		n      uint64
		p      float64
		bits   uint64
		hashes uint
	}{
		{1000, 0.01, 9586, 7},
		{1_000_000, 0.01, 9585059, 7},
		{1, 0.5, 2, 1},
	}
	for _, tt := range tests {
		size, err := Sizing(tt.n, tt.p)
		require.NoError(t, err)
		assert.Equal(t, tt.bits, size.Bits, "n=%d p=%v", tt.n, tt.p)
		assert.Equal(t, tt.hashes, size.Hashes, "n=%d p=%v", tt.n, tt.p)
	}
}

func TestSizing_Invalid(t *testing.T) {
	for _, p := range []float64{0, 1, -1, 2, math.NaN()} {
		_, err := Sizing(1000, p)
		assert.ErrorIs(t, err, core.ErrInvalidFilterConfig, "p=%v", p)
	}
	_, err := Sizing(0, 0.01)
	assert.ErrorIs(t, err, core.ErrInvalidFilterConfig)
}

func TestFilterSize_Estimates(t *testing.T) {
	size, err := Sizing(1000, 0.01)
	require.NoError(t, err)

	assert.Equal(t, uint64(1199), size.Bytes())
	assert.Zero(t, size.EstimatedFalsePositiveRate(0))
	assert.InDelta(t, 0.01, size.EstimatedFalsePositiveRate(1000), 0.001)
	assert.Greater(t, size.EstimatedFalsePositiveRate(2000), 0.01)
}
