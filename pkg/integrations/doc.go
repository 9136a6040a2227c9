// Package integrations provides HTTP clients for the public APIs the
// explorer reads from.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [npm]: registry search, package documents and download statistics
//   - [bundle]: bundle size analysis (bundlephobia)
//   - [github]: repository metadata for enrichment
//   - [npms]: quality, popularity and maintenance scores
//
// # Client Pattern
//
// All clients follow a consistent pattern:
//
//	base := integrations.NewClient(fetcher, time.Hour) // Cache TTL
//	client := npm.NewClient(base)
//	pkg, err := client.FetchPackage(ctx, "react")
//
// Clients handle:
//   - Input validation and URL construction
//   - Response caching under namespaced keys (see [Key])
//   - API-specific parsing and normalization
//
// Retries, caching mechanics and rate limiting live in [httputil.Client],
// shared by every binding through [Client].
//
// [npm]: github.com/matzehuels/pkgexplorer/pkg/integrations/npm
// [bundle]: github.com/matzehuels/pkgexplorer/pkg/integrations/bundle
// [github]: github.com/matzehuels/pkgexplorer/pkg/integrations/github
// [npms]: github.com/matzehuels/pkgexplorer/pkg/integrations/npms
// [httputil.Client]: github.com/matzehuels/pkgexplorer/pkg/httputil.Client
package integrations
