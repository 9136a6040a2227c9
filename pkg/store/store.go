package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Sentinel errors for store operations.
var (
	// ErrUnavailable is returned when a backend cannot be reached or has
	// been closed.
	ErrUnavailable = errors.New("store unavailable")

	// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is a key-value backend for cached payloads.
type Store interface {
	// Get returns the payload stored under key.
	// A missing or backend-expired key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, replacing any previous value.
	// A ttl of 0 means the backend never expires the key on its own.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by stores that can drop every entry at once.
// Clear returns the number of removed entries when the backend knows it.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}

// Pinger is implemented by stores that can check their availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Available reports whether s is usable. Stores without a [Pinger]
// implementation are assumed to be available; a nil store never is.
func Available(ctx context.Context, s Store) bool {
	if s == nil {
		return false
	}
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx) == nil
	}
	return true
}

// expiry returns the absolute expiration for ttl, or the zero time for no expiry.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && now.After(expiresAt)
}
