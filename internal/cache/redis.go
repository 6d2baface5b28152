package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every fredmcp key in a shared Redis instance.
const keyPrefix = "fredmcp:"

// RedisBackend stores cache entries in an external Redis service. TTLs are
// delegated to Redis expiry, so Get never has to check timestamps itself.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects using a redis:// connection string.
// Connectivity problems surface later through Info and per-call errors; the
// cache front degrades them to misses.
func NewRedisBackend(rawURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing CACHE_EXTERNAL_URL: %w", err)
	}
	return &RedisBackend{client: redis.NewClient(opts)}, nil
}

// NewRedisBackendWithClient wires an existing client; tests use this with
// miniredis.
func NewRedisBackendWithClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func redisKey(namespace, key string) string {
	return keyPrefix + namespace + ":" + key
}

// Get returns the payload if present; Redis expiry handles TTLs.
func (r *RedisBackend) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, redisKey(namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

// Set stores the payload with the given TTL.
func (r *RedisBackend) Set(ctx context.Context, namespace, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, redisKey(namespace, key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (r *RedisBackend) Delete(ctx context.Context, namespace, key string) error {
	return r.client.Del(ctx, redisKey(namespace, key)).Err()
}

// Clear removes every fredmcp-prefixed key, leaving other tenants alone.
func (r *RedisBackend) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Info pings the server and counts keys per namespace via SCAN.
func (r *RedisBackend) Info(ctx context.Context) BackendInfo {
	info := BackendInfo{Kind: "external", Entries: map[string]int{}}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return info
	}
	info.Connected = true
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), keyPrefix)
		// Namespace is everything before the last colon-separated key part;
		// namespaces themselves contain a colon (fred:search).
		if idx := strings.LastIndex(rest, ":"); idx > 0 {
			info.Entries[rest[:idx]]++
		}
	}
	return info
}

// Close releases the connection pool.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
