// Package redisstore provides the shared KVStore implementation backed by
// Redis. The admission window check runs as a Lua script so the
// check-and-increment is a single atomic round trip; concurrent callers
// sharing a subject key can never admit more than the configured limit.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lessonforge/lessonforge/internal/config"
	"github.com/lessonforge/lessonforge/internal/store"
)

// checkWindowScript performs the fixed-window check-and-increment.
// KEYS[1] window counter key, ARGV[1] limit, ARGV[2] window millis.
// Returns {allowed(0|1), count, pttl_millis}. The first increment of a
// window starts its expiry clock; a refused request leaves the counter
// untouched so the stored count never exceeds the limit.
var checkWindowScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if count >= limit then
  local ttl = redis.call('PTTL', KEYS[1])
  if ttl < 0 then ttl = tonumber(ARGV[2]) end
  return {0, count, ttl}
end
count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then ttl = tonumber(ARGV[2]) end
return {1, count, ttl}
`)

// Store is a Redis-backed store.KVStore.
type Store struct {
	client *redis.Client
}

// New creates a Redis store from configuration. The connection is not
// probed here: the failover handle probes per-operation, and a Redis
// outage at startup must not prevent the service from coming up on the
// fallback store.
func New(cfg config.StoreConfig) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.PoolSize,
	})

	return &Store{client: client}
}

// NewWithClient wraps an existing client. Used by tests with miniredis.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Name identifies the implementation for logs and health reporting.
func (s *Store) Name() string { return "redis" }

// Get returns the value stored at key, mapping redis.Nil to
// store.ErrNotFound and transport errors to store.ErrUnavailable.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: redis get: %v", store.ErrUnavailable, err)
	}

	return value, nil
}

// Set stores value at key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", store.ErrUnavailable, err)
	}

	return nil
}

// Incr atomically increments the counter at key.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: redis incr: %v", store.ErrUnavailable, err)
	}

	return n, nil
}

// CheckWindow runs the atomic check-and-increment script.
func (s *Store) CheckWindow(
	ctx context.Context,
	key string,
	limit int64,
	window time.Duration,
) (bool, int64, time.Duration, error) {
	res, err := checkWindowScript.Run(ctx, s.client, []string{key},
		limit, window.Milliseconds()).Result()
	if err != nil {
		return false, 0, 0, fmt.Errorf("%w: redis check window: %v", store.ErrUnavailable, err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, 0, fmt.Errorf("%w: unexpected script result %v", store.ErrUnavailable, res)
	}

	allowed := values[0].(int64) == 1
	count := values[1].(int64)
	reset := time.Duration(values[2].(int64)) * time.Millisecond

	return allowed, count, reset, nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %v", store.ErrUnavailable, err)
	}

	return nil
}

// Close releases the client's connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
