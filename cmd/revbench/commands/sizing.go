package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/layer-3/revbench/adapters/registry"
	"github.com/layer-3/revbench/core"
	"github.com/layer-3/revbench/service"
)

// sizingOutput is the json form of a filter size
type sizingOutput struct {
	Capacity        uint64  `json:"capacity"`
	FPRate          float64 `json:"fp_rate"`
	Bits            uint64  `json:"bits"`
	Hashes          uint    `json:"hashes"`
	Bytes           uint64  `json:"bytes"`
	EstimatedFPRate float64 `json:"estimated_fp_rate"`
}

// RunSizing prints the bloom filter dimensions for capacity elements at fpRate.
func RunSizing(out io.Writer, capacity int, fpRate float64, format string) error {
	if capacity < 0 {
		return fmt.Errorf("capacity must not be negative, got %d: %w", capacity, core.ErrInvalidFilterConfig)
	}
	size, err := registry.Sizing(uint64(capacity), fpRate)
	if err != nil {
		return err
	}

	switch format {
	case service.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sizingOutput{
			Capacity:        size.Capacity,
			FPRate:          size.FPRate,
			Bits:            size.Bits,
			Hashes:          size.Hashes,
			Bytes:           size.Bytes(),
			EstimatedFPRate: size.EstimatedFalsePositiveRate(size.Capacity),
		})
	case service.FormatText, "":
		_, err = fmt.Fprintf(out,
			"Capacity: %d\nFalse positive rate: %g\nBits: %d\nHashes: %d\nSize: %s\nEstimated false positive rate at capacity: %.6f\n",
			size.Capacity,
			size.FPRate,
			size.Bits,
			size.Hashes,
			service.HumanBytes(int64(size.Bytes())),
			size.EstimatedFalsePositiveRate(size.Capacity),
		)
		return err
	default:
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}
}
