// Package cache is a small JSON-over-Redis key/value cache. A Store without
// a client is valid and behaves as a permanent miss, so callers never need
// to special-case a missing Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store reads and writes JSON values under a key prefix.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

// New returns a Store namespacing its keys with prefix. rdb may be nil.
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Enabled reports whether the store is backed by Redis.
func (s *Store) Enabled() bool { return s != nil && s.rdb != nil }

// MGet fetches several keys in one round trip. hit(i, raw) is called for
// each key that was present.
func (s *Store) MGet(ctx context.Context, keys []string, hit func(i int, raw []byte)) error {
	if !s.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}

	vals, err := s.rdb.MGet(ctx, full...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			hit(i, []byte(str))
		}
	}
	return nil
}

// Set stores value under key for ttl.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, s.prefix+key, data, ttl).Err()
}

