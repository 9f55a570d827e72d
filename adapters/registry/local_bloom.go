package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	bloomfilter "github.com/holiman/bloomfilter/v2"
)

// LocalBloom is a bloom filter registry held in process memory, with no
// backing store. It is the network-free baseline for Bloom.
//
// The bit array is allocated on the first Invalidate after a Reset.
type LocalBloom struct {
	mu     sync.RWMutex
	filter *bloomfilter.Filter
	size   FilterSize
}

// NewLocalBloom creates an in-process registry sized for n elements at a
// false positive rate of p.
func NewLocalBloom(n uint64, p float64) (*LocalBloom, error) {
	size, err := Sizing(n, p)
	if err != nil {
		return nil, err
	}
	return &LocalBloom{size: size}, nil
}

// Size returns the filter dimensions
func (r *LocalBloom) Size() FilterSize {
	return r.size
}

// Invalidate adds key to the filter. The ttl is ignored.
func (r *LocalBloom) Invalidate(_ context.Context, key string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filter == nil {
		f, err := bloomfilter.New(r.size.Bits, uint64(r.size.Hashes))
		if err != nil {
			return fmt.Errorf("failed to allocate filter: %w", err)
		}
		r.filter = f
	}
	r.filter.AddHash(xxhash.Sum64String(key))
	return nil
}

// IsInvalidated reports whether key may have been added
func (r *LocalBloom) IsInvalidated(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.filter == nil {
		return false, nil
	}
	return r.filter.ContainsHash(xxhash.Sum64String(key)), nil
}

// Reset drops the filter
func (r *LocalBloom) Reset(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filter = nil
	return nil
}

// MemoryUsage returns the size of the allocated bit array
func (r *LocalBloom) MemoryUsage(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.filter == nil {
		return 0, nil
	}
	return int64((r.filter.M() + 7) / 8), nil
}

// Close is a no-op
func (r *LocalBloom) Close() error {
	return nil
}
