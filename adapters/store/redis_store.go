package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/revbench/core"
	"github.com/redis/go-redis/v9"
)

// MaxBitOffset is the largest bit offset a Redis string can address (512MB)
const MaxBitOffset = 1<<32 - 1

// RedisStore is a Redis implementation of the Store and BitStore interfaces
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Set stores value under key with the given expiration
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Get retrieves a value by key
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", err)
	}
	return val, true, nil
}

// Exists checks if key is present and not expired
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return val > 0, nil
}

// Delete removes key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Flush removes every key of the selected database
func (s *RedisStore) Flush(ctx context.Context) error {
	if err := s.client.FlushDB(ctx).Err(); err != nil {
		return unavailable("flush", err)
	}
	return nil
}

// MemoryUsage returns used_memory from INFO memory
func (s *RedisStore) MemoryUsage(ctx context.Context) (int64, error) {
	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return 0, unavailable("info memory", err)
	}
	return parseUsedMemory(info)
}

// Ping checks that the server is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// SetBits sets every offset of the bitmap stored at key in one round trip
func (s *RedisStore) SetBits(ctx context.Context, key string, offsets []uint64) error {
	if err := checkOffsets(offsets); err != nil {
		return err
	}
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, off := range offsets {
			pipe.SetBit(ctx, key, int64(off), 1)
		}
		return nil
	})
	if err != nil {
		return unavailable("setbit", err)
	}
	return nil
}

// GetBits reads every offset of the bitmap stored at key in one round trip
func (s *RedisStore) GetBits(ctx context.Context, key string, offsets []uint64) ([]bool, error) {
	if err := checkOffsets(offsets); err != nil {
		return nil, err
	}
	cmds := make([]*redis.IntCmd, len(offsets))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, off := range offsets {
			cmds[i] = pipe.GetBit(ctx, key, int64(off))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("getbit", err)
	}

	bits := make([]bool, len(cmds))
	for i, cmd := range cmds {
		bits[i] = cmd.Val() == 1
	}
	return bits, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func checkOffsets(offsets []uint64) error {
	for _, off := range offsets {
		if off > MaxBitOffset {
			return fmt.Errorf("bit offset %d exceeds %d: %w", off, uint64(MaxBitOffset), core.ErrInvalidFilterConfig)
		}
	}
	return nil
}

func parseUsedMemory(info string) (int64, error) {
	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		val, ok := strings.CutPrefix(line, "used_memory:")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse used_memory %q: %w", val, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("used_memory missing from INFO reply: %w", core.ErrStoreUnavailable)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, core.ErrStoreUnavailable, err)
}
