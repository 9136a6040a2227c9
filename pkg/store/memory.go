package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

// defaultMemoryLife bounds how long bigcache keeps an entry when no smaller
// per-entry TTL applies.
const defaultMemoryLife = 24 * time.Hour

// MemoryStore is an in-process store backed by bigcache.
// Capacity is bounded in megabytes; per-entry TTLs are enforced on read
// because bigcache only knows a single global life window.
type MemoryStore struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

type memoryEntry struct {
	Data      []byte    `json:"d"`
	ExpiresAt time.Time `json:"e,omitzero"`
}

// defaultMemoryMB is used when no size is configured.
const defaultMemoryMB = 64

// NewMemoryStore creates an in-process store limited to sizeMB megabytes.
func NewMemoryStore(ctx context.Context, sizeMB int) (*MemoryStore, error) {
	if sizeMB <= 0 {
		sizeMB = defaultMemoryMB
	}
	cfg := bigcache.DefaultConfig(defaultMemoryLife)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10_000
	cfg.HardMaxCacheSize = sizeMB
	cfg.Verbose = false

	cache, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache, now: time.Now}, nil
}

// Get retrieves a value from the store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry memoryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = s.cache.Delete(key)
		return nil, false, nil
	}
	if expired(s.now(), entry.ExpiresAt) {
		_ = s.cache.Delete(key)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a value in the store.
func (s *MemoryStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(memoryEntry{Data: data, ExpiresAt: expiry(s.now(), ttl)})
	if err != nil {
		return err
	}
	return s.cache.Set(key, raw)
}

// Delete removes a value from the store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	err := s.cache.Delete(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

// Clear drops every entry.
func (s *MemoryStore) Clear(ctx context.Context) (int, error) {
	n := s.cache.Len()
	return n, s.cache.Reset()
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (s *MemoryStore) Len() int { return s.cache.Len() }

// Close stops bigcache's cleanup goroutine.
func (s *MemoryStore) Close() error {
	return s.cache.Close()
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Clearer = (*MemoryStore)(nil)
)
