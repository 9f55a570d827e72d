package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/layer-3/revbench/ports"
)

// DefaultBloomKey is the store key holding the filter's bit array
const DefaultBloomKey = "jwt-blacklist:bloom"

// secondHashSeed seeds the second base hash of the double hashing scheme
const secondHashSeed = 0x9e3779b97f4a7c15

// Bloom keeps invalidated tokens in a fixed-size bloom filter.
//
// Individual entries cannot be removed or expire: the ttl passed to Invalidate
// is ignored, and rotation has to happen by resetting the whole filter.
type Bloom struct {
	bits ports.BitStore
	key  string
	size FilterSize
}

// NewBloom creates a probabilistic registry sized for n elements at a false
// positive rate of p, stored under key in bits.
func NewBloom(bits ports.BitStore, key string, n uint64, p float64) (*Bloom, error) {
	size, err := Sizing(n, p)
	if err != nil {
		return nil, err
	}
	if key == "" {
		key = DefaultBloomKey
	}
	return &Bloom{bits: bits, key: key, size: size}, nil
}

// Size returns the filter dimensions
func (r *Bloom) Size() FilterSize {
	return r.size
}

// Invalidate sets the k bits of key
func (r *Bloom) Invalidate(ctx context.Context, key string, _ time.Duration) error {
	if err := r.bits.SetBits(ctx, r.key, r.positions(key)); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// IsInvalidated reports whether all k bits of key are set
func (r *Bloom) IsInvalidated(ctx context.Context, key string) (bool, error) {
	bits, err := r.bits.GetBits(ctx, r.key, r.positions(key))
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	for _, set := range bits {
		if !set {
			return false, nil
		}
	}
	return true, nil
}

// positions derives k offsets in [0, m) as h1 + i*h2 (mod m).
// The step h2 is never zero mod m.
func (r *Bloom) positions(key string) []uint64 {
	m := r.size.Bits

	h1 := xxhash.Sum64String(key) % m
	d := xxhash.NewWithSeed(secondHashSeed)
	_, _ = d.WriteString(key)
	h2 := d.Sum64() % m
	if h2 == 0 {
		h2 = 1
	}

	out := make([]uint64, r.size.Hashes)
	for i := range out {
		out[i] = (h1 + uint64(i)*h2) % m
	}
	return out
}

// Reset clears the filter
func (r *Bloom) Reset(ctx context.Context) error {
	return r.bits.Flush(ctx)
}

// MemoryUsage reports the memory in use by the backing store
func (r *Bloom) MemoryUsage(ctx context.Context) (int64, error) {
	return r.bits.MemoryUsage(ctx)
}

// Close releases the backing store
func (r *Bloom) Close() error {
	return r.bits.Close()
}
