package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultRedisPrefix namespaces keys so Clear never touches foreign data.
const defaultRedisPrefix = "pkgexplorer:"

// RedisClient is the subset of go-redis used by [RedisStore].
// *redis.Client satisfies it; tests substitute a fake.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore is a shared store backed by Redis or a protocol-compatible
// server. Key expiry is delegated to Redis.
type RedisStore struct {
	client RedisClient
	prefix string
}

// DialRedis connects to the Redis server at url (redis://[:password@]host:port/db)
// and verifies the connection with PING.
func DialRedis(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis at %s: %v", ErrUnavailable, opts.Addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client. An empty prefix uses "pkgexplorer:".
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get retrieves a value from Redis.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores a value in Redis with ttl as the key expiry.
func (s *RedisStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, data, max(ttl, 0)).Err()
}

// Delete removes a value from Redis.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Clear deletes every key under the store prefix using SCAN, so it never
// blocks the server the way KEYS would.
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 500).Result()
		if err != nil {
			return count, err
		}
		if len(keys) > 0 {
			n, err := s.client.Del(ctx, keys...).Result()
			count += int(n)
			if err != nil {
				return count, err
			}
		}
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var (
	_ Store       = (*RedisStore)(nil)
	_ Clearer     = (*RedisStore)(nil)
	_ Pinger      = (*RedisStore)(nil)
	_ RedisClient = (*redis.Client)(nil)
)
