package httputil

import (
	"context"
	"encoding/json"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgexplorer/pkg/observability"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

// Entry is the envelope persisted for every cached payload.
type Entry struct {
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at,omitzero"`
	Value     json.RawMessage `json:"value"`
}

// Fresh reports whether the entry may be served at now.
// The entry must not have passed its write-time expiry and, when maxAge is
// positive, must be younger than maxAge.
func (e Entry) Fresh(now time.Time, maxAge time.Duration) bool {
	if !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt) {
		return false
	}
	if maxAge > 0 && now.Sub(e.StoredAt) >= maxAge {
		return false
	}
	return true
}

// Age returns how long ago the entry was stored.
func (e Entry) Age(now time.Time) time.Duration { return now.Sub(e.StoredAt) }

// Cache is a best-effort TTL cache of JSON payloads.
//
// The backing store is optional: a Cache over a nil store behaves as an
// always-empty cache. No method returns an error; store failures degrade to
// misses and skipped writes.
//
// Use [Cache.Namespace] to create scoped views that prefix keys:
//
//	npm := cache.Namespace("npm:")
//	npm.Write(ctx, "pkg:react", body, time.Hour) // key becomes "npm:pkg:react"
type Cache struct {
	store  store.Store
	prefix string
	logger *log.Logger
	now    func() time.Time
}

// NewCache creates a Cache over s. A nil logger discards diagnostics.
func NewCache(s store.Store, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{store: s, logger: logger, now: time.Now}
}

// Store returns the backing store, which may be nil.
func (c *Cache) Store() store.Store { return c.store }

// Namespace returns a Cache that automatically prefixes all keys with prefix.
// The returned Cache shares the parent's store. Calls can be chained:
//
//	cache.Namespace("npm:").Namespace("pkg:") // prefix: "npm:pkg:"
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{
		store:  c.store,
		prefix: c.prefix + prefix,
		logger: c.logger,
		now:    c.now,
	}
}

// Read returns the entry for key if it exists, parses and is fresh.
// It returns false when the store is absent or fails, the key is missing, the
// stored envelope is corrupt, or the entry is stale.
func (c *Cache) Read(ctx context.Context, key string, maxAge time.Duration) (Entry, bool) {
	if c == nil || c.store == nil {
		return Entry{}, false
	}
	key = c.prefix + key
	ns := namespaceOf(key)

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache read failed", "key", key, "err", err)
		observability.Cache().OnCacheError(ctx, ns, "read", err)
		observability.Cache().OnCacheMiss(ctx, ns)
		return Entry{}, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, ns)
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Value) == 0 {
		c.logger.Debug("cache entry unreadable", "key", key, "err", err)
		observability.Cache().OnCacheError(ctx, ns, "decode", err)
		observability.Cache().OnCacheMiss(ctx, ns)
		return Entry{}, false
	}
	if !entry.Fresh(c.now(), maxAge) {
		observability.Cache().OnCacheMiss(ctx, ns)
		return Entry{}, false
	}

	observability.Cache().OnCacheHit(ctx, ns)
	return entry, true
}

// Write stores a raw JSON value under key with a write-time ttl.
// A ttl of 0 stores an entry that only a reader's maxAge can expire.
// It reports whether the store accepted the write.
func (c *Cache) Write(ctx context.Context, key string, value json.RawMessage, ttl time.Duration) bool {
	if c == nil || c.store == nil {
		return false
	}
	key = c.prefix + key
	ns := namespaceOf(key)

	now := c.now()
	entry := Entry{StoredAt: now, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Debug("cache entry not encodable", "key", key, "err", err)
		observability.Cache().OnCacheError(ctx, ns, "encode", err)
		return false
	}
	if err := c.store.Set(ctx, key, data, max(ttl, 0)); err != nil {
		c.logger.Debug("cache write failed", "key", key, "err", err)
		observability.Cache().OnCacheError(ctx, ns, "write", err)
		return false
	}

	observability.Cache().OnCacheSet(ctx, ns, len(data))
	return true
}

// Get reads a fresh entry and unmarshals it into v, which must be a non-nil
// pointer. A value that no longer decodes into v is reported as a miss and
// leaves v untouched.
func (c *Cache) Get(ctx context.Context, key string, maxAge time.Duration, v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return false
	}
	entry, ok := c.Read(ctx, key, maxAge)
	if !ok {
		return false
	}
	tmp := reflect.New(rv.Elem().Type())
	if err := json.Unmarshal(entry.Value, tmp.Interface()); err != nil {
		c.logger.Debug("cached value does not match target", "key", c.prefix+key, "err", err)
		return false
	}
	rv.Elem().Set(tmp.Elem())
	return true
}

// Set marshals v and writes it under key.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) bool {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Debug("value not encodable", "key", c.prefix+key, "err", err)
		return false
	}
	return c.Write(ctx, key, data, ttl)
}

// Delete removes key. Failures are logged and otherwise ignored.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.prefix+key); err != nil {
		c.logger.Debug("cache delete failed", "key", c.prefix+key, "err", err)
	}
}

// namespaceOf returns the first ":"-separated segment of key.
func namespaceOf(key string) string {
	ns, _, _ := strings.Cut(key, ":")
	return ns
}
