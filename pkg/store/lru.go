package store

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// LRUStore is an in-process store backed by ristretto.
// Each entry costs its payload size in bytes, so maxBytes bounds memory use;
// ristretto's admission policy may decline to keep rarely used keys.
type LRUStore struct {
	cache *ristretto.Cache
}

// NewLRUStore creates a cost-bounded store holding up to maxBytes of payload
// and tuned for roughly maxEntries keys.
func NewLRUStore(maxBytes, maxEntries int64) (*LRUStore, error) {
	// NumCounters should be ~10x the number of entries for optimal performance
	numCounters := max(maxEntries*10, 1000)

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: cache}, nil
}

// Get retrieves a value from the store.
func (s *LRUStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := val.([]byte)
	if !ok {
		s.cache.Del(key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value in the store. The write is visible to the next Get.
func (s *LRUStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	cost := int64(len(data))
	if ttl > 0 {
		s.cache.SetWithTTL(key, data, cost, ttl)
	} else {
		s.cache.Set(key, data, cost)
	}
	s.cache.Wait()
	return nil
}

// Delete removes a value from the store.
func (s *LRUStore) Delete(ctx context.Context, key string) error {
	s.cache.Del(key)
	return nil
}

// Clear drops every entry. Ristretto does not report how many were held.
func (s *LRUStore) Clear(ctx context.Context) (int, error) {
	s.cache.Clear()
	return 0, nil
}

// Close stops ristretto's background goroutines.
func (s *LRUStore) Close() error {
	s.cache.Close()
	return nil
}

var (
	_ Store   = (*LRUStore)(nil)
	_ Clearer = (*LRUStore)(nil)
)
