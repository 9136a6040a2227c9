// Package npm provides a client for the npm registry and its download
// statistics API.
//
// The registry serves package documents ("packuments") holding every
// published version, search results ranked by the registry's own scoring,
// and per-version manifests. Download counts come from a separate host
// (api.npmjs.org) and are aggregated per day.
//
// Scoped names are escaped as a single path segment ("@babel%2Fcore"), as
// the registry expects.
package npm
