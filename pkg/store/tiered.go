package store

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

// TieredStore composes several stores, typically a fast in-process tier in
// front of a shared one. Reads return the first tier that has the key;
// writes and deletes go to every tier.
type TieredStore struct {
	tiers  []Store
	logger *log.Logger
}

// NewTieredStore creates a store over tiers, fastest first.
// A nil logger discards tier failures.
func NewTieredStore(logger *log.Logger, tiers ...Store) *TieredStore {
	if logger == nil {
		logger = discardLogger()
	}
	return &TieredStore{tiers: tiers, logger: logger}
}

// Get returns the first hit. A failing tier is logged and skipped; an error
// is only returned when every tier failed.
func (s *TieredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var errs []error
	for i, tier := range s.tiers {
		data, ok, err := tier.Get(ctx, key)
		if err != nil {
			s.logger.Debug("store tier get failed", "tier", i, "key", key, "err", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			return data, true, nil
		}
	}
	if len(s.tiers) > 0 && len(errs) == len(s.tiers) {
		return nil, false, errors.Join(errs...)
	}
	return nil, false, nil
}

// Set writes to every tier and joins the failures.
func (s *TieredStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var errs []error
	for i, tier := range s.tiers {
		if err := tier.Set(ctx, key, data, ttl); err != nil {
			s.logger.Debug("store tier set failed", "tier", i, "key", key, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes key from every tier.
func (s *TieredStore) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, tier := range s.tiers {
		if err := tier.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear clears every tier that supports it and sums the removed entries.
func (s *TieredStore) Clear(ctx context.Context) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, tier := range s.tiers {
		c, ok := tier.(Clearer)
		if !ok {
			continue
		}
		n, err := c.Clear(ctx)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Tiers returns the number of composed stores.
func (s *TieredStore) Tiers() int { return len(s.tiers) }

// Close closes every tier.
func (s *TieredStore) Close() error {
	var errs []error
	for _, tier := range s.tiers {
		if err := tier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Store   = (*TieredStore)(nil)
	_ Clearer = (*TieredStore)(nil)
)
