package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedis is an in-memory RedisClient.
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	if f.closed {
		return redis.NewStatusResult("", redis.ErrClosed)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, NewRedisStore(newFakeRedis(), ""))
}

func TestRedisStorePrefixAndTTL(t *testing.T) {
	fake := newFakeRedis()
	s := NewRedisStore(fake, "")
	ctx := context.Background()

	if err := s.Set(ctx, "npm:pkg:react", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := fake.data["pkgexplorer:npm:pkg:react"]; !ok {
		t.Error("key should be stored under the default prefix")
	}
	if got := fake.ttls["pkgexplorer:npm:pkg:react"]; got != time.Minute {
		t.Errorf("ttl = %v, want 1m", got)
	}

	_ = s.Set(ctx, "nottl", []byte("x"), -time.Second)
	if got := fake.ttls["pkgexplorer:nottl"]; got != 0 {
		t.Errorf("negative ttl should map to no expiry, got %v", got)
	}
}

func TestRedisStoreClear(t *testing.T) {
	fake := newFakeRedis()
	fake.data["other:key"] = []byte("keep")
	s := NewRedisStore(fake, "test:")
	ctx := context.Background()

	_ = s.Set(ctx, "a", []byte("1"), 0)
	_ = s.Set(ctx, "b", []byte("2"), 0)

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if _, ok := fake.data["other:key"]; !ok {
		t.Error("Clear() must not delete keys outside the prefix")
	}
}

func TestRedisStoreErrors(t *testing.T) {
	fake := newFakeRedis()
	fake.failGet = errors.New("connection reset")
	s := NewRedisStore(fake, "")

	if _, ok, err := s.Get(context.Background(), "k"); ok || err == nil {
		t.Errorf("Get() = %v, %v; want false, error", ok, err)
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
	s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping() after Close should fail")
	}
}
