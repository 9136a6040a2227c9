package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, name := range EnvVars() {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	isolate(t)
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.Retries != 2 || cfg.HTTP.RetryDelay != 300*time.Millisecond {
		t.Errorf("http defaults = %+v", cfg.HTTP)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("Load() error = %v, want INVALID_CONFIG", err)
	}
}

func TestLoadTOML(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.toml", `
[cache]
backend = "memory"
memory_mb = 16

[http]
retries = 4
retry_delay = "1s"
rate_limit = 5.5
coalesce = true

[ttl]
package = "30m"

[endpoints]
registry = "https://registry.example.com"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != store.BackendMemory || cfg.Cache.MemoryMB != 16 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.HTTP.Retries != 4 || cfg.HTTP.RetryDelay != time.Second || cfg.HTTP.RateLimit != 5.5 || !cfg.HTTP.Coalesce {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.TTL.Package != 30*time.Minute {
		t.Errorf("ttl.package = %v", cfg.TTL.Package)
	}
	// Untouched keys keep their defaults.
	if cfg.TTL.Search != 10*time.Minute {
		t.Errorf("ttl.search = %v, want default", cfg.TTL.Search)
	}
	if cfg.Endpoints.Registry != "https://registry.example.com" || cfg.Endpoints.NPMS != "https://api.npms.io" {
		t.Errorf("endpoints = %+v", cfg.Endpoints)
	}
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.yaml", `
cache:
  backend: tiered
  tiers: [lru, file]
server:
  addr: "0.0.0.0:9090"
  write_timeout: 2m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.Backend != store.BackendTiered || strings.Join(cfg.Cache.Tiers, ",") != "lru,file" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != "0.0.0.0:9090" || cfg.Server.WriteTimeout != 2*time.Minute {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolate(t)
	tests := []struct {
		name, file, content string
	}{
		{"toml", "config.toml", "[http]\nretriez = 3\n"},
		{"yaml", "config.yml", "http:\n  retriez: 3\n"},
		{"format", "config.ini", "retries=3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
				t.Fatalf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "config.toml", "[http]\nretries = 4\n")
	t.Setenv("PKGEXPLORER_HTTP_RETRIES", "1")
	t.Setenv("PKGEXPLORER_CACHE_BACKEND", "redis")
	t.Setenv("PKGEXPLORER_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PKGEXPLORER_TTL_REPO", "90s")
	t.Setenv("PKGEXPLORER_CACHE_TIERS", " lru , ,file")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.Retries != 1 {
		t.Errorf("retries = %d, want env value 1", cfg.HTTP.Retries)
	}
	if cfg.Cache.Backend != store.BackendRedis || cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.TTL.Repo != 90*time.Second {
		t.Errorf("ttl.repo = %v", cfg.TTL.Repo)
	}
	if strings.Join(cfg.Cache.Tiers, ",") != "lru,file" {
		t.Errorf("tiers = %q", cfg.Cache.Tiers)
	}
}

func TestEnvBadValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(key string) (string, bool) {
		if key == "PKGEXPLORER_HTTP_TIMEOUT" {
			return "soon", true
		}
		return "", false
	})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
		t.Fatalf("ApplyEnv() error = %v, want INVALID_CONFIG", err)
	}
	if !strings.Contains(err.Error(), "PKGEXPLORER_HTTP_TIMEOUT") {
		t.Errorf("error %q should name the variable", err)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Cache.Backend = "s3" }, "cache.backend must be one of"},
		{"retries", func(c *Config) { c.HTTP.Retries = 11 }, "http.retries must be <= 10"},
		{"retry delay", func(c *Config) { c.HTTP.RetryDelay = 3000 * time.Hour }, "http.retry_delay must be <= 1m"},
		{"negative ttl", func(c *Config) { c.TTL.Bundle = -time.Second }, "ttl.bundle"},
		{"endpoint", func(c *Config) { c.Endpoints.GitHub = "" }, "endpoints.github is required"},
		{"endpoint url", func(c *Config) { c.Endpoints.NPMS = "not a url" }, "endpoints.npms must be a URL"},
		{"addr", func(c *Config) { c.Server.Addr = "localhost" }, "server.addr must be host:port"},
		{"redis url", func(c *Config) { c.Cache.Backend = store.BackendRedis }, "cache.redis_url is required"},
		{"mongo uri", func(c *Config) { c.Cache.Backend = store.BackendMongo }, "cache.mongo_uri is required"},
		{"tiers empty", func(c *Config) { c.Cache.Backend = store.BackendTiered }, "cache.tiers is required"},
		{"tiers nested", func(c *Config) {
			c.Cache.Backend = store.BackendTiered
			c.Cache.Tiers = []string{"lru", "tiered"}
		}, "cannot contain tiered"},
		{"tier redis", func(c *Config) {
			c.Cache.Backend = store.BackendTiered
			c.Cache.Tiers = []string{"lru", "redis"}
		}, "cache.redis_url is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !apperrors.Is(err, apperrors.ErrCodeInvalidConfig) {
				t.Errorf("code = %s, want INVALID_CONFIG", apperrors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	isolate(t)
	for _, format := range []string{"toml", "yaml"} {
		t.Run(format, func(t *testing.T) {
			want := Default()
			want.HTTP.Retries = 5
			want.Cache.Tiers = []string{"lru", "file"}

			var buf bytes.Buffer
			if err := want.Encode(&buf, format); err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			got := Default()
			if err := got.Decode(&buf, format); err != nil {
				t.Fatalf("Decode() error: %v\n%s", err, buf.String())
			}
			if got.HTTP.Retries != 5 || len(got.Cache.Tiers) != 2 || got.TTL.Bundle != want.TTL.Bundle {
				t.Errorf("round trip lost data: %+v", got)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	path := writeFile(t, ".env", "PKGEXPLORER_HTTP_USER_AGENT=from-dotenv\n")
	t.Setenv("PKGEXPLORER_HTTP_USER_AGENT", "")
	os.Unsetenv("PKGEXPLORER_HTTP_USER_AGENT")

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error: %v", err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTP.UserAgent != "from-dotenv" {
		t.Errorf("user agent = %q", cfg.HTTP.UserAgent)
	}
}

func TestStoreOptions(t *testing.T) {
	isolate(t)
	c := Default().Cache
	c.Backend = store.BackendNone
	opts := c.StoreOptions()
	if opts.Backend != store.BackendNone || opts.Dir != c.Dir || opts.MemoryMB != 64 {
		t.Errorf("StoreOptions() = %+v", opts)
	}
}
