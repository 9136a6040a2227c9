package store

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// Backend names accepted by [Open].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendLRU    = "lru"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendTiered = "tiered"
	BackendNone   = "none"
)

// Backends lists every backend name in display order.
var Backends = []string{BackendFile, BackendMemory, BackendLRU, BackendRedis, BackendMongo, BackendTiered, BackendNone}

// Options selects and configures a backend for [Open].
type Options struct {
	Backend string

	// Dir is the FileStore root.
	Dir string

	// MemoryMB bounds MemoryStore and LRUStore.
	MemoryMB int

	RedisURL    string
	RedisPrefix string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Tiers lists the backends composed by the tiered backend, fastest first.
	Tiers []string
}

// Open creates the store described by opts.
func Open(ctx context.Context, opts Options, logger *log.Logger) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir)
	case BackendMemory:
		return NewMemoryStore(ctx, opts.MemoryMB)
	case BackendLRU:
		return NewLRUStore(int64(max(opts.MemoryMB, 1))<<20, 10_000)
	case BackendRedis:
		return DialRedis(ctx, opts.RedisURL, opts.RedisPrefix)
	case BackendMongo:
		return DialMongo(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	case BackendNone:
		return NewNullStore(), nil
	case BackendTiered:
		return openTiered(ctx, opts, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func openTiered(ctx context.Context, opts Options, logger *log.Logger) (Store, error) {
	if len(opts.Tiers) == 0 {
		return nil, fmt.Errorf("%w: tiered backend needs at least one tier", ErrUnknownBackend)
	}
	if slices.Contains(opts.Tiers, BackendTiered) {
		return nil, fmt.Errorf("%w: tiered backend cannot nest itself", ErrUnknownBackend)
	}

	tiers := make([]Store, 0, len(opts.Tiers))
	for _, name := range opts.Tiers {
		tierOpts := opts
		tierOpts.Backend = name
		s, err := Open(ctx, tierOpts, logger)
		if err != nil {
			for _, t := range tiers {
				_ = t.Close()
			}
			return nil, fmt.Errorf("open tier %s: %w", name, err)
		}
		tiers = append(tiers, s)
	}
	return NewTieredStore(logger, tiers...), nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
