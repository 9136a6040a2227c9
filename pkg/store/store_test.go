package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v; want false, nil", ok, err)
	}

	if err := s.Set(ctx, "npm:pkg:react", []byte(`{"name":"react"}`), time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, ok, err := s.Get(ctx, "npm:pkg:react")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v; want true, nil", ok, err)
	}
	if !bytes.Equal(data, []byte(`{"name":"react"}`)) {
		t.Errorf("Get() data = %s", data)
	}

	// Overwrite is last-write-wins.
	if err := s.Set(ctx, "npm:pkg:react", []byte(`{"name":"react","v":2}`), 0); err != nil {
		t.Fatalf("Set(overwrite) error: %v", err)
	}
	data, _, _ = s.Get(ctx, "npm:pkg:react")
	if !bytes.Equal(data, []byte(`{"name":"react","v":2}`)) {
		t.Errorf("Get() after overwrite = %s", data)
	}

	if err := s.Delete(ctx, "npm:pkg:react"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "npm:pkg:react"); ok {
		t.Error("Get() after Delete should miss")
	}
	if err := s.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	s := NewNullStore()
	defer s.Close()

	if err := s.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := s.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %v, %v, %v; want nil, false, nil", data, hit, err)
	}
	if err := s.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	exerciseStore(t, s)
}

func TestFileStoreExpiry(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); !ok {
		t.Fatal("fresh entry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(s.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry file should be removed")
	}
}

func TestFileStoreCorruptEntry(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	path := s.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, ok, err := s.Get(context.Background(), "k")
	if ok || err != nil || data != nil {
		t.Errorf("Get(corrupt) = %v, %v, %v; want miss without error", data, ok, err)
	}
}

func TestFileStorePathStability(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if s.path("test") != s.path("test") {
		t.Error("path should be deterministic")
	}
	if s.path("test") == s.path("other") {
		t.Error("different keys should produce different paths")
	}
	if rel, _ := filepath.Rel(s.Dir(), s.path("test")); filepath.Dir(rel) == "." {
		t.Errorf("path %q should be sharded into a subdirectory", rel)
	}
}

func TestFileStoreClear(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Errorf("store dir should be empty, has %d entries", len(entries))
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping() after Clear error: %v", err)
	}
}

func TestFileStoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)

	// Replace the shard directory with a file so writes fail like a full disk.
	shard := filepath.Dir(s.path("k"))
	if err := os.WriteFile(shard, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(context.Background(), "k", []byte("v"), 0); err == nil {
		t.Error("Set() should fail when the shard path is not a directory")
	}
}

func TestMemoryStore(t *testing.T) {
	s, err := NewMemoryStore(context.Background(), 8)
	if err != nil {
		t.Fatalf("NewMemoryStore() error: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreExpiryAndClear(t *testing.T) {
	ctx := context.Background()
	s, _ := NewMemoryStore(ctx, 8)
	defer s.Close()

	now := time.Now()
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "short", []byte("1"), time.Second)
	_ = s.Set(ctx, "forever", []byte("2"), 0)

	now = now.Add(time.Minute)
	if _, ok, _ := s.Get(ctx, "short"); ok {
		t.Error("expired entry should miss")
	}
	if _, ok, _ := s.Get(ctx, "forever"); !ok {
		t.Error("entry without ttl should hit")
	}

	if _, err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", s.Len())
	}
}

func TestLRUStore(t *testing.T) {
	s, err := NewLRUStore(1<<20, 100)
	if err != nil {
		t.Fatalf("NewLRUStore() error: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestAvailable(t *testing.T) {
	ctx := context.Background()
	if Available(ctx, nil) {
		t.Error("nil store should not be available")
	}
	if !Available(ctx, NewNullStore()) {
		t.Error("store without Ping should be assumed available")
	}

	dir := filepath.Join(t.TempDir(), "cache")
	s, _ := NewFileStore(dir)
	if !Available(ctx, s) {
		t.Error("file store should be available")
	}
	os.RemoveAll(dir)
	if Available(ctx, s) {
		t.Error("file store with removed directory should be unavailable")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{"file", Options{Backend: BackendFile, Dir: t.TempDir()}, nil},
		{"default is file", Options{Dir: t.TempDir()}, nil},
		{"memory", Options{Backend: BackendMemory, MemoryMB: 4}, nil},
		{"lru", Options{Backend: BackendLRU, MemoryMB: 4}, nil},
		{"none", Options{Backend: BackendNone}, nil},
		{"tiered", Options{Backend: BackendTiered, Tiers: []string{BackendMemory, BackendFile}, Dir: t.TempDir()}, nil},
		{"tiered without tiers", Options{Backend: BackendTiered}, ErrUnknownBackend},
		{"tiered nesting", Options{Backend: BackendTiered, Tiers: []string{BackendTiered}}, ErrUnknownBackend},
		{"unknown", Options{Backend: "etcd"}, ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			defer s.Close()
			exerciseStore(t, s)
		})
	}
}
