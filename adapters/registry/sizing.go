package registry

import (
	"fmt"
	"math"

	"github.com/layer-3/revbench/core"
)

// FilterSize holds the dimensions of a bloom filter
type FilterSize struct {
	Capacity uint64  // expected number of elements, n
	FPRate   float64 // target false positive rate, p
	Bits     uint64  // bit array size, m
	Hashes   uint    // hash function count, k
}

// Bytes returns the size of the bit array in bytes
func (f FilterSize) Bytes() uint64 {
	return (f.Bits + 7) / 8
}

// EstimatedFalsePositiveRate returns the theoretical false positive rate after
// inserted distinct elements: (1 - e^(-k*inserted/m))^k.
func (f FilterSize) EstimatedFalsePositiveRate(inserted uint64) float64 {
	if f.Bits == 0 {
		return 1
	}
	k := float64(f.Hashes)
	return math.Pow(1-math.Exp(-k*float64(inserted)/float64(f.Bits)), k)
}

// Sizing computes the bit array size and hash count for n elements at a
// false positive rate of p.
func Sizing(n uint64, p float64) (FilterSize, error) {
	if n == 0 {
		return FilterSize{}, fmt.Errorf("capacity must be positive: %w", core.ErrInvalidFilterConfig)
	}
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return FilterSize{}, fmt.Errorf("false positive rate %v outside (0,1): %w", p, core.ErrInvalidFilterConfig)
	}

	ln2 := math.Ln2
	m := math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2))
	k := math.Round(m / float64(n) * ln2)
	if k < 1 {
		k = 1
	}

	return FilterSize{
		Capacity: n,
		FPRate:   p,
		Bits:     uint64(m),
		Hashes:   uint(k),
	}, nil
}
