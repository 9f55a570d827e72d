package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/revbench/core"
)

func TestRunSizing(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunSizing(&out, 1_000_000, 0.01, "text"))

		assert.Contains(t, out.String(), "Bits: 9585059\n")
		assert.Contains(t, out.String(), "Hashes: 7\n")
		assert.Contains(t, out.String(), "Size: 1.14M\n")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunSizing(&out, 1000, 0.01, "json"))

		var got sizingOutput
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, uint64(1000), got.Capacity)
		assert.Equal(t, uint64(9586), got.Bits)
		assert.Equal(t, uint(7), got.Hashes)
		assert.Equal(t, uint64(1199), got.Bytes)
		assert.InDelta(t, 0.01, got.EstimatedFPRate, 0.001)
	})

	t.Run("invalid-rate", func(t *testing.T) {
		var out bytes.Buffer
		err := RunSizing(&out, 1000, 1.5, "text")
		require.ErrorIs(t, err, core.ErrInvalidFilterConfig)
	})

	t.Run("negative-capacity", func(t *testing.T) {
		var out bytes.Buffer
		err := RunSizing(&out, -1, 0.01, "text")
		require.ErrorIs(t, err, core.ErrInvalidFilterConfig)
	})

	t.Run("invalid-format", func(t *testing.T) {
		var out bytes.Buffer
		err := RunSizing(&out, 1000, 0.01, "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}
