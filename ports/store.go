package ports

import (
	"context"
	"time"
)

// Store is the TTL-aware key/value collaborator behind the exact registry
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
	MemoryUsage(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// BitStore is the bit array collaborator behind the probabilistic registry
type BitStore interface {
	SetBits(ctx context.Context, key string, offsets []uint64) error
	GetBits(ctx context.Context, key string, offsets []uint64) ([]bool, error)
	Flush(ctx context.Context) error
	MemoryUsage(ctx context.Context) (int64, error)
	Close() error
}
