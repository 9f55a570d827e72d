package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	s := NewMemoryStore(WithClock(clock.Now))

	require.NoError(t, s.Set(ctx, "key", "1", time.Hour))
	require.NoError(t, s.Set(ctx, "forever", "1", 0))

	val, ok, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", val)

	clock.Advance(time.Hour - time.Second)
	exists, err := s.Exists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)

	clock.Advance(time.Second)
	exists, err = s.Exists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, s.Len())

	exists, err = s.Exists(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryStore_DeleteFlush(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "a", "1", time.Hour))
	require.NoError(t, s.Set(ctx, "b", "1", time.Hour))
	require.NoError(t, s.SetBits(ctx, "bloom", []uint64{3}))

	require.NoError(t, s.Delete(ctx, "a"))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Flush(ctx))
	assert.Zero(t, s.Len())
	assert.Zero(t, s.BitCount("bloom"))
}

func TestMemoryStore_Bits(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bits, err := s.GetBits(ctx, "bloom", []uint64{0, 5})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, bits)

	require.NoError(t, s.SetBits(ctx, "bloom", []uint64{5, 9_999, 5}))
	assert.Equal(t, uint(2), s.BitCount("bloom"))

	bits, err = s.GetBits(ctx, "bloom", []uint64{0, 5, 9_999, 1 << 40})
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true, false}, bits)
}

func TestMemoryStore_MemoryUsage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	used, err := s.MemoryUsage(ctx)
	require.NoError(t, err)
	assert.Positive(t, used)
	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				_ = s.SetBits(ctx, "bloom", []uint64{uint64(i*100 + j)})
				_, _ = s.GetBits(ctx, "bloom", []uint64{uint64(j)})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint(800), s.BitCount("bloom"))
}
