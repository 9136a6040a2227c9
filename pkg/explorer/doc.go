// Package explorer composes the upstream bindings into the views the CLI
// and HTTP API serve.
//
// # Overview
//
// [Service.Overview] gathers everything known about one package:
//
//   - the registry document (required)
//   - weekly downloads
//   - bundle size of the latest version
//   - GitHub repository metrics, when the package links a GitHub repository
//   - npms.io scores
//
// The sources are fetched concurrently. Only the registry document is
// required; any other failure is recorded as a [Warning] and the field is
// left nil.
//
// # Comparison
//
// [Service.Compare] builds overviews for 2 to 10 packages with bounded
// concurrency, preserving input order, and picks a leader per metric.
package explorer
