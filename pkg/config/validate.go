package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and cross-field backend requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = describe(fe)
			}
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidConfig, err, "invalid configuration")
	}

	backends := []string{c.Cache.Backend}
	if c.Cache.Backend == store.BackendTiered {
		if len(c.Cache.Tiers) == 0 {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid configuration: cache.tiers is required for the tiered backend")
		}
		if slices.Contains(c.Cache.Tiers, store.BackendTiered) {
			return apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid configuration: cache.tiers cannot contain tiered")
		}
		backends = c.Cache.Tiers
	}
	if slices.Contains(backends, store.BackendRedis) && c.Cache.RedisURL == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid configuration: cache.redis_url is required for the redis backend")
	}
	if slices.Contains(backends, store.BackendMongo) && c.Cache.MongoURI == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid configuration: cache.mongo_uri is required for the mongo backend")
	}
	if slices.Contains(backends, store.BackendFile) && c.Cache.Dir == "" {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "invalid configuration: cache.dir is required for the file backend")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.cache.backend"; drop the root type.
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", key, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", key, fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", key, map[string]string{"gte": ">=", "lte": "<="}[fe.Tag()], fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
