// Package cache implements the instance cache: an ephemeral mapping
// of function-key to live instance address with TTL. Backed by Redis,
// using a conditional SET (NX + expiration) to guarantee at-most-one
// insert per key.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrBackend is returned by PutIfAbsent when the Redis backend itself fails
// (connection error, timeout). Get never returns an error: a
// cache-layer failure on read is non-fatal and is treated the same
// as a miss.
var ErrBackend = errors.New("cache: backend error")

// Store is the instance cache's public surface.
type Store interface {
	Get(ctx context.Context, key string) (addr string, ok bool)
	PutIfAbsent(ctx context.Context, key, addr string, ttl time.Duration) error
}

// RedisStore is the Store implementation backed by go-redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore parses redisURL (e.g. redis://host:6379/0) and
// constructs a RedisStore. The connection itself is lazy: go-redis
// dials on first command, so a ping is issued here to fail fast at
// startup rather than on the first invocation.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(options)

	pingContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingContext).Err(); err != nil {
		return nil, err
	}

	logger.Info("cache connected", "addr", options.Addr)
	return &RedisStore{client: client, logger: logger}, nil
}

// Get returns the address stored under key, and whether it was found.
// any backend error (timeout, connection drop) is logged and folded
// into a miss rather than surfaced to the caller.
func (store *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	addr, err := store.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		store.logger.Warn("cache get failed, treating as miss", "key", key, "error", err)
		return "", false
	}
	return addr, true
}

// PutIfAbsent inserts addr under key only if no value currently exists,
// with the entry expiring after ttl. Uses Redis SET ... NX EX, which is
// atomic at the server: under concurrent callers racing the same key,
// exactly one SET wins and the rest observe false/no-op, matching the
// at-most-one-insert contract required by the invocation scheduler.
func (store *RedisStore) PutIfAbsent(ctx context.Context, key, addr string, ttl time.Duration) error {
	_, err := store.client.SetArgs(ctx, key, addr, redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	// redis.Nil here means the NX condition was not met (key already
	// present): the caller lost the race, which is not an error;
	// callers must tolerate losing it.
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return ErrBackend
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (store *RedisStore) Close() error {
	return store.client.Close()
}
