// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about cache operations and upstream HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, which keeps the fetch
// client free of any metrics framework. The Prometheus implementation lives
// in internal/metrics.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCacheHooks(metrics.CacheHooks{})
//	    observability.SetHTTPHooks(metrics.HTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
//	// ... perform request ...
//	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, status, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from the response cache.
// The namespace is the first segment of the cache key (e.g. "npm").
type CacheHooks interface {
	// OnCacheHit records a fresh entry served from the cache.
	OnCacheHit(ctx context.Context, namespace string)

	// OnCacheMiss records an absent, stale or unreadable entry.
	OnCacheMiss(ctx context.Context, namespace string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, namespace string, size int)

	// OnCacheError records a swallowed store failure.
	OnCacheError(ctx context.Context, namespace, op string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the fetch client.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request attempt.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response, successful or not.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a transport failure (connection refused, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnRetry records a backoff before the given attempt is retried.
	OnRetry(ctx context.Context, host string, attempt int, delay time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)                  {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)                 {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)             {}
func (NoopCacheHooks) OnCacheError(context.Context, string, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnRetry(context.Context, string, int, time.Duration, error)             {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	cacheHooks CacheHooks = NoopCacheHooks{}
	httpHooks  HTTPHooks  = NoopHTTPHooks{}
	hooksMu    sync.RWMutex
)

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
