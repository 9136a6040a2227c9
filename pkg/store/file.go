package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore is a file-based store for CLI usage.
// Entries are JSON files in a two-level directory tree named after the
// SHA-256 of the key, so arbitrary keys are safe file names.
//
// Writes go through a temporary file and a rename, so concurrent writers to
// the same key resolve as last-write-wins and readers never see a torn file.
type FileStore struct {
	dir string
	now func() time.Time
}

// fileEntry wraps stored data with its backend expiration.
type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewFileStore creates a file-based store in dir.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string { return s.dir }

// Get retrieves a value from the store.
// Unreadable or expired files are removed and reported as a miss.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if expired(s.now(), entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// Set stores a value in the store.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	entryData, err := json.Marshal(fileEntry{Data: data, ExpiresAt: expiry(s.now(), ttl)})
	if err != nil {
		return err
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(entryData); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes a value from the store.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every entry and the now-empty shard directories.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == s.dir || d.IsDir() {
			return nil
		}
		if err := os.Remove(path); err == nil && !strings.HasPrefix(d.Name(), ".tmp-") {
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return count, err
	}
	for _, e := range entries {
		if e.IsDir() {
			_ = os.Remove(filepath.Join(s.dir, e.Name()))
		}
	}
	return count, nil
}

// Ping checks that the store directory is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrUnavailable
	}
	return nil
}

// Close does nothing for file stores.
func (s *FileStore) Close() error {
	return nil
}

// path converts a key to a file path.
// The first two hash characters are used as a subdirectory for distribution.
func (s *FileStore) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(s.dir, hash[:2], hash[2:]+".json")
}

var (
	_ Store   = (*FileStore)(nil)
	_ Clearer = (*FileStore)(nil)
	_ Pinger  = (*FileStore)(nil)
)
