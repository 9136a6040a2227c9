// Package store provides the persistent key-value backends behind the
// response cache.
//
// # Overview
//
// A [Store] maps opaque string keys to byte payloads with an optional
// backend-level TTL. It is deliberately narrow (get, set, delete, close) so
// that a browser-style storage area, a directory on disk, an in-process
// cache, or a shared Redis/MongoDB deployment can all serve as the cache
// behind [httputil.Cache]:
//
//   - [FileStore]: JSON files under ~/.cache/pkgexplorer (the CLI default)
//   - [MemoryStore]: in-process, byte-bounded (bigcache)
//   - [LRUStore]: in-process, cost-bounded with admission policy (ristretto)
//   - [RedisStore]: shared across processes, native key expiry
//   - [MongoStore]: shared across processes, TTL index on expires_at
//   - [NullStore]: stores nothing, used by --no-cache
//   - [TieredStore]: reads the first tier that has a key, writes to all
//
// Optional capabilities are expressed as separate interfaces: [Clearer] for
// "cache clear" and [Pinger] for availability checks.
//
// # Failure Model
//
// Store errors are ordinary Go errors. The caching layer above treats every
// one of them as a cache miss (for reads) or a skipped write, so a broken
// or full backend never fails a request.
//
// [httputil.Cache]: github.com/matzehuels/pkgexplorer/pkg/httputil.Cache
package store
