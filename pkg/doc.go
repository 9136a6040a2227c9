// Package pkg provides the core libraries of pkgexplorer, an npm package
// explorer backed by a caching, retrying JSON fetch client.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [httputil] - The fetch client: TTL cache envelope, retry policy, rate
//     limiting and request coalescing
//  2. [store] - Cache backends (file, memory, LRU, Redis, MongoDB, tiered)
//  3. [integrations] - Upstream API bindings (npm registry and downloads,
//     bundlephobia, GitHub, GitLab, npms.io)
//  4. [explorer] and [depgraph] - Package overviews, comparisons and
//     dependency graphs built on the bindings
//
// Supporting packages: [config] (TOML/YAML files plus PKGEXPLORER_*
// environment overrides), [errors] (coded errors), [observability] (cache
// and HTTP hooks) and [buildinfo].
//
// # Architecture
//
//	npm registry / downloads / bundlephobia / GitHub / GitLab / npms.io
//	         ↓
//	    [httputil] Client.Fetch (retry, backoff, rate limit)
//	         ↕
//	    [httputil] Cache → [store] backend
//	         ↓
//	    [integrations] typed clients
//	         ↓
//	    [explorer] overview/compare, [depgraph] resolve/render
//	         ↓
//	    CLI (internal/cli) and HTTP API (internal/server)
//
// # Quick Start
//
//	s, _ := store.NewFileStore(dir)
//	hc := httputil.NewClient(
//	    httputil.WithCache(httputil.NewCache(s, nil)),
//	    httputil.WithPolicy(httputil.DefaultPolicy()),
//	)
//	base := integrations.NewClient(hc, time.Hour)
//	svc := explorer.New(explorer.Clients{
//	    NPM:    npm.NewClient(base),
//	    GitHub: github.NewClient(base, ""),
//	}, nil)
//	o, err := svc.Overview(ctx, "react")
//
// internal/app wires all of this from a [config.Config].
package pkg
