// Package config loads pkgexplorer settings from a TOML or YAML file,
// environment variables and defaults, in increasing order of precedence:
// defaults, then the file, then PKGEXPLORER_* variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

// AppName names the config and cache directories.
const AppName = "pkgexplorer"

// Config is the complete application configuration.
type Config struct {
	Cache     CacheConfig     `toml:"cache" yaml:"cache"`
	HTTP      HTTPConfig      `toml:"http" yaml:"http"`
	TTL       TTLConfig       `toml:"ttl" yaml:"ttl"`
	Endpoints EndpointsConfig `toml:"endpoints" yaml:"endpoints"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
}

// CacheConfig selects and configures the response store.
type CacheConfig struct {
	Backend         string   `toml:"backend" yaml:"backend" validate:"oneof=file memory lru redis mongo tiered none"`
	Dir             string   `toml:"dir" yaml:"dir"`
	MemoryMB        int      `toml:"memory_mb" yaml:"memory_mb" validate:"gte=1,lte=65536"`
	RedisURL        string   `toml:"redis_url" yaml:"redis_url" validate:"omitempty,url"`
	RedisPrefix     string   `toml:"redis_prefix" yaml:"redis_prefix"`
	MongoURI        string   `toml:"mongo_uri" yaml:"mongo_uri" validate:"omitempty,url"`
	MongoDatabase   string   `toml:"mongo_database" yaml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection" yaml:"mongo_collection"`
	Tiers           []string `toml:"tiers" yaml:"tiers" validate:"dive,oneof=file memory lru redis mongo none"`
}

// HTTPConfig tunes the upstream fetch client.
type HTTPConfig struct {
	Timeout    time.Duration `toml:"timeout" yaml:"timeout" validate:"gte=0,lte=1m"`
	Retries    int           `toml:"retries" yaml:"retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `toml:"retry_delay" yaml:"retry_delay" validate:"gte=0,lte=1m"`
	RateLimit  float64       `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
	Burst      int           `toml:"burst" yaml:"burst" validate:"gte=0"`
	UserAgent  string        `toml:"user_agent" yaml:"user_agent"`
	Coalesce   bool          `toml:"coalesce" yaml:"coalesce"`
}

// TTLConfig holds cache lifetimes per upstream resource.
type TTLConfig struct {
	Package   time.Duration `toml:"package" yaml:"package" validate:"gte=0"`
	Search    time.Duration `toml:"search" yaml:"search" validate:"gte=0"`
	Downloads time.Duration `toml:"downloads" yaml:"downloads" validate:"gte=0"`
	Bundle    time.Duration `toml:"bundle" yaml:"bundle" validate:"gte=0"`
	Repo      time.Duration `toml:"repo" yaml:"repo" validate:"gte=0"`
	Score     time.Duration `toml:"score" yaml:"score" validate:"gte=0"`
}

// EndpointsConfig overrides upstream base URLs, e.g. for a registry mirror.
type EndpointsConfig struct {
	Registry  string `toml:"registry" yaml:"registry" validate:"required,url"`
	Downloads string `toml:"downloads" yaml:"downloads" validate:"required,url"`
	Bundle    string `toml:"bundle" yaml:"bundle" validate:"required,url"`
	GitHub    string `toml:"github" yaml:"github" validate:"required,url"`
	GitLab    string `toml:"gitlab" yaml:"gitlab" validate:"required,url"`
	NPMS      string `toml:"npms" yaml:"npms" validate:"required,url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `toml:"addr" yaml:"addr" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `toml:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:         store.BackendFile,
			Dir:             DefaultCacheDir(),
			MemoryMB:        64,
			RedisPrefix:     "pkgexplorer:",
			MongoDatabase:   store.DefaultMongoDatabase,
			MongoCollection: store.DefaultMongoCollection,
		},
		HTTP: HTTPConfig{
			Timeout:    10 * time.Second,
			Retries:    2,
			RetryDelay: 300 * time.Millisecond,
			UserAgent:  AppName,
		},
		TTL: TTLConfig{
			Package:   time.Hour,
			Search:    10 * time.Minute,
			Downloads: 6 * time.Hour,
			Bundle:    7 * 24 * time.Hour,
			Repo:      6 * time.Hour,
			Score:     24 * time.Hour,
		},
		Endpoints: EndpointsConfig{
			Registry:  "https://registry.npmjs.org",
			Downloads: "https://api.npmjs.org",
			Bundle:    "https://bundlephobia.com",
			GitHub:    "https://api.github.com",
			GitLab:    "https://gitlab.com/api/v4",
			NPMS:      "https://api.npms.io",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pkgexplorer/config.toml, falling back
// to the OS user config directory.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserConfigDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(dir, AppName, "config.toml")
}

// DefaultCacheDir returns $XDG_CACHE_HOME/pkgexplorer, falling back to the
// OS user cache directory and finally the temp directory.
func DefaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(os.TempDir(), AppName)
}

// Load builds the configuration. An empty path reads [DefaultPath] if it
// exists; an explicit path must exist. Environment overrides are applied
// last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		err := cfg.decodeFile(path)
		if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding the existing environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "load %s", p)
		}
	}
	return nil
}

func (c *Config) decodeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()
	return c.Decode(f, formatOf(path))
}

// Decode reads a configuration document in format "toml" or "yaml" over c.
// Unknown keys are rejected.
func (c *Config) Decode(r io.Reader, format string) error {
	switch format {
	case "toml":
		md, err := toml.NewDecoder(r).Decode(c)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "decode TOML config")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
		}
		return nil
	case "yaml":
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "decode YAML config")
		}
		return nil
	default:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "unsupported config format %q (want toml or yaml)", format)
	}
}

// Encode writes c in format "toml" or "yaml".
func (c *Config) Encode(w io.Writer, format string) error {
	switch format {
	case "toml":
		return toml.NewEncoder(w).Encode(c)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	default:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "unsupported config format %q (want toml or yaml)", format)
	}
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return strings.TrimPrefix(filepath.Ext(path), ".")
	}
}

// StoreOptions converts the cache section for [store.Open].
func (c CacheConfig) StoreOptions() store.Options {
	return store.Options{
		Backend:         c.Backend,
		Dir:             c.Dir,
		MemoryMB:        c.MemoryMB,
		RedisURL:        c.RedisURL,
		RedisPrefix:     c.RedisPrefix,
		MongoURI:        c.MongoURI,
		MongoDatabase:   c.MongoDatabase,
		MongoCollection: c.MongoCollection,
		Tiers:           c.Tiers,
	}
}

func (c *Config) String() string {
	var b strings.Builder
	if err := c.Encode(&b, "toml"); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
