// Package depgraph resolves and renders the runtime dependency graph of an
// npm package.
//
// # Resolution
//
// [Resolve] walks dependencies breadth-first from the root, one depth level
// at a time. Each level is fetched in parallel with a bounded number of
// workers. The walk stops expanding at [Options.MaxDepth] and stops adding
// packages once [Options.MaxNodes] is reached, marking the graph truncated.
//
// Each dependency is represented by its latest published version; the
// declared semver range is kept on the edge. Failing to fetch the root is an
// error; failing to fetch any other package marks that node missing.
//
// # Rendering
//
// [Graph.ToDOT] produces Graphviz DOT text and [RenderSVG] lays it out with
// the embedded Graphviz library, so no system installation is needed.
package depgraph
