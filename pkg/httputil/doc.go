// Package httputil provides the cached, retrying JSON fetch client used by
// every registry binding.
//
// # Overview
//
// Three pieces compose into one entry point:
//
//   - [Cache]: a best-effort TTL cache of JSON payloads over a [store.Store]
//   - [Policy]: retry with exponential backoff and jitter
//   - [Client]: checks the cache, fetches under the retry policy, decodes,
//     and stores successful payloads
//
// # Fetching
//
//	client := httputil.NewClient(httputil.WithCache(cache))
//	pkg, err := httputil.FetchJSON[Packument](ctx, client, url,
//	    httputil.CacheAs("npm:pkg:react", time.Hour),
//	    httputil.Retries(2),
//	)
//
// A fresh cache entry is returned without any network I/O and without
// background revalidation. Otherwise the request is sent with
// "Accept: application/json" merged with client and per-call headers.
//
// # Caching
//
// Cache entries carry the time they were stored and an expiry bound at
// write time. A reader may additionally pass a maximum age; the stricter of
// the two wins. Store failures of any kind (unavailable backend, quota
// exceeded, corrupt entry) are logged at debug level, reported to
// [observability.CacheHooks], and otherwise treated as a miss: they never
// fail a fetch.
//
// Keys should be namespaced by upstream to avoid collisions, e.g.
// "npm:pkg:react" or "bundle:size:react@18.2.0".
//
// # Retry
//
// Transient failures are retried:
//
//   - Network and transport errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Any other non-2xx status fails immediately with a [StatusError]
// ("Request failed: 404 Not Found"). The delay before retry n (from 0) is
// baseDelay*2^n plus up to 150ms of jitter, or the server's Retry-After if
// that is longer. A malformed JSON body is never retried.
//
// # Concurrency
//
// A [Client] is safe for concurrent use. Identical concurrent fetches are
// independent by default; [WithCoalescing] shares one in-flight request per
// cache key instead.
//
// # Configuration
//
// Defaults suit the public npm infrastructure:
//
//   - Retries: 2 (three attempts in total)
//   - Base backoff: 300ms
//   - Jitter: [0, 150ms)
//   - Request timeout: 10s
//
// [store.Store]: github.com/matzehuels/pkgexplorer/pkg/store.Store
// [observability.CacheHooks]: github.com/matzehuels/pkgexplorer/pkg/observability.CacheHooks
package httputil
