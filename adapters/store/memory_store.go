package store

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-memory implementation of the Store and BitStore interfaces.
// Expired entries are dropped lazily when read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	bitmaps map[string]*bitset.BitSet
	now     func() time.Time
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock replaces the wall clock used to evaluate expirations
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		bitmaps: make(map[string]*bitset.BitSet),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores value under key. A non-positive ttl stores the key without expiry.
func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: value, expiresAt: expiresAt}
	return nil
}

// Get retrieves a value by key
func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry, ok := s.lookup(key)
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

// Exists checks if key is present and not expired
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.lookup(key)
	return ok, nil
}

func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return memoryEntry{}, false
	}

	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		// Only delete if the entry hasn't been refreshed meanwhile
		if current, exists := s.entries[key]; exists && current.expiresAt.Equal(entry.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return memoryEntry{}, false
	}
	return entry, true
}

// Delete removes key
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	delete(s.bitmaps, key)
	return nil
}

// Flush removes all data from the store
func (s *MemoryStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	s.bitmaps = make(map[string]*bitset.BitSet)
	return nil
}

// MemoryUsage returns the live Go heap after a forced collection.
// The store shares the process heap, so callers compare samples rather than
// reading absolute values.
func (s *MemoryStore) MemoryUsage(ctx context.Context) (int64, error) {
	runtime.GC()
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.HeapAlloc), nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored keys, expired ones included until read
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// SetBits sets every offset of the bitmap stored at key
func (s *MemoryStore) SetBits(ctx context.Context, key string, offsets []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bitmaps[key]
	if !ok {
		b = bitset.New(0)
		s.bitmaps[key] = b
	}
	for _, off := range offsets {
		b.Set(uint(off))
	}
	return nil
}

// GetBits reads every offset of the bitmap stored at key.
// A missing bitmap reads as all zeroes.
func (s *MemoryStore) GetBits(ctx context.Context, key string, offsets []uint64) ([]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bits := make([]bool, len(offsets))
	b, ok := s.bitmaps[key]
	if !ok {
		return bits, nil
	}
	for i, off := range offsets {
		bits[i] = b.Test(uint(off))
	}
	return bits, nil
}

// BitCount returns the number of set bits in the bitmap stored at key
func (s *MemoryStore) BitCount(key string) uint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bitmaps[key]
	if !ok {
		return 0
	}
	return b.Count()
}
