package ports

import (
	"context"
	"time"
)

// Registry records invalidated tokens and answers membership queries
type Registry interface {
	// Invalidate marks key as revoked for ttl
	Invalidate(ctx context.Context, key string, ttl time.Duration) error

	// IsInvalidated reports whether key is currently revoked
	IsInvalidated(ctx context.Context, key string) (bool, error)
}

// Lifecycle is implemented by registries the benchmark can reset and measure
type Lifecycle interface {
	Reset(ctx context.Context) error
	MemoryUsage(ctx context.Context) (int64, error)
	Close() error
}

// ManagedRegistry is a registry with a lifecycle
type ManagedRegistry interface {
	Registry
	Lifecycle
}
