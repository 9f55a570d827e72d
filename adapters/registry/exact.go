package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/revbench/ports"
)

// DefaultExactPrefix namespaces exact registry keys in the store
const DefaultExactPrefix = "jwt-blacklist:"

// Exact keeps one store entry per invalidated token, expiring with the token
type Exact struct {
	store  ports.Store
	prefix string
}

// NewExact creates an exact registry over store. An empty prefix selects
// DefaultExactPrefix.
func NewExact(store ports.Store, prefix string) *Exact {
	if prefix == "" {
		prefix = DefaultExactPrefix
	}
	return &Exact{store: store, prefix: prefix}
}

// Invalidate stores key until ttl elapses. A token whose ttl has already run
// out is not stored since it can no longer be presented.
func (r *Exact) Invalidate(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.store.Set(ctx, r.prefix+key, "1", ttl); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// IsInvalidated checks if key is currently stored
func (r *Exact) IsInvalidated(ctx context.Context, key string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.prefix+key)
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	return ok, nil
}

// Reset flushes the backing store
func (r *Exact) Reset(ctx context.Context) error {
	return r.store.Flush(ctx)
}

// MemoryUsage reports the memory in use by the backing store
func (r *Exact) MemoryUsage(ctx context.Context) (int64, error) {
	return r.store.MemoryUsage(ctx)
}

// Close releases the backing store
func (r *Exact) Close() error {
	return r.store.Close()
}
