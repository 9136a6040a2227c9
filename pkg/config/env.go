package config

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PKGEXPLORER_"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type binding struct {
	name string
	set  func(c *Config, v string) error
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func dur(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

var bindings = []binding{
	{"CACHE_BACKEND", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"CACHE_DIR", str(func(c *Config) *string { return &c.Cache.Dir })},
	{"CACHE_MEMORY_MB", integer(func(c *Config) *int { return &c.Cache.MemoryMB })},
	{"CACHE_TIERS", func(c *Config, v string) error {
		c.Cache.Tiers = splitList(v)
		return nil
	}},
	{"REDIS_URL", str(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"REDIS_PREFIX", str(func(c *Config) *string { return &c.Cache.RedisPrefix })},
	{"MONGO_URI", str(func(c *Config) *string { return &c.Cache.MongoURI })},
	{"MONGO_DATABASE", str(func(c *Config) *string { return &c.Cache.MongoDatabase })},
	{"MONGO_COLLECTION", str(func(c *Config) *string { return &c.Cache.MongoCollection })},

	{"HTTP_TIMEOUT", dur(func(c *Config) *time.Duration { return &c.HTTP.Timeout })},
	{"HTTP_RETRIES", integer(func(c *Config) *int { return &c.HTTP.Retries })},
	{"HTTP_RETRY_DELAY", dur(func(c *Config) *time.Duration { return &c.HTTP.RetryDelay })},
	{"HTTP_RATE_LIMIT", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.HTTP.RateLimit = f
		return nil
	}},
	{"HTTP_BURST", integer(func(c *Config) *int { return &c.HTTP.Burst })},
	{"HTTP_USER_AGENT", str(func(c *Config) *string { return &c.HTTP.UserAgent })},
	{"HTTP_COALESCE", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.HTTP.Coalesce = b
		return nil
	}},

	{"TTL_PACKAGE", dur(func(c *Config) *time.Duration { return &c.TTL.Package })},
	{"TTL_SEARCH", dur(func(c *Config) *time.Duration { return &c.TTL.Search })},
	{"TTL_DOWNLOADS", dur(func(c *Config) *time.Duration { return &c.TTL.Downloads })},
	{"TTL_BUNDLE", dur(func(c *Config) *time.Duration { return &c.TTL.Bundle })},
	{"TTL_REPO", dur(func(c *Config) *time.Duration { return &c.TTL.Repo })},
	{"TTL_SCORE", dur(func(c *Config) *time.Duration { return &c.TTL.Score })},

	{"REGISTRY_URL", str(func(c *Config) *string { return &c.Endpoints.Registry })},
	{"DOWNLOADS_URL", str(func(c *Config) *string { return &c.Endpoints.Downloads })},
	{"BUNDLE_URL", str(func(c *Config) *string { return &c.Endpoints.Bundle })},
	{"GITHUB_URL", str(func(c *Config) *string { return &c.Endpoints.GitHub })},
	{"GITLAB_URL", str(func(c *Config) *string { return &c.Endpoints.GitLab })},
	{"NPMS_URL", str(func(c *Config) *string { return &c.Endpoints.NPMS })},

	{"SERVER_ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
	{"SERVER_READ_TIMEOUT", dur(func(c *Config) *time.Duration { return &c.Server.ReadTimeout })},
	{"SERVER_WRITE_TIMEOUT", dur(func(c *Config) *time.Duration { return &c.Server.WriteTimeout })},
	{"SERVER_SHUTDOWN_TIMEOUT", dur(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout })},
}

// EnvVars lists every recognised environment variable.
func EnvVars() []string {
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = EnvPrefix + b.name
	}
	return names
}

// ApplyEnv overrides fields from PKGEXPLORER_* variables found by lookup.
// Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for _, b := range bindings {
		key := EnvPrefix + b.name
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := b.set(c, strings.TrimSpace(v)); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "invalid %s", key)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
