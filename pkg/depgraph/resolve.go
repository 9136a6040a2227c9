package depgraph

import (
	"context"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
)

// Defaults and hard limits for resolution.
const (
	DefaultMaxDepth    = 3
	DefaultMaxNodes    = 150
	DefaultConcurrency = 8

	MaxDepthLimit = 10
	MaxNodesLimit = 2000
)

// Fetcher retrieves package documents from the registry.
type Fetcher interface {
	FetchPackage(ctx context.Context, name string) (*npm.Package, error)
}

// Options bounds the walk.
type Options struct {
	MaxDepth    int
	MaxNodes    int
	Concurrency int

	// Peer also follows peer dependencies.
	Peer bool

	Logger *log.Logger
}

// WithDefaults fills zero fields and clamps the rest to the hard limits.
func (o Options) WithDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	o.MaxDepth = min(o.MaxDepth, MaxDepthLimit)
	o.MaxNodes = min(o.MaxNodes, MaxNodesLimit)
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// Resolve builds the dependency graph of root.
func Resolve(ctx context.Context, f Fetcher, root string, opts Options) (*Graph, error) {
	opts = opts.WithDefaults()
	root = integrations.NormalizePkgName(root)
	if err := apperrors.ValidatePackageName(root); err != nil {
		return nil, err
	}

	g := newGraph(root)
	g.addNode(root, 0)

	frontier := []string{root}
	for depth := 0; len(frontier) > 0; depth++ {
		pkgs, err := fetchLevel(ctx, f, frontier, opts.Concurrency)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, name := range frontier {
			n := g.nodes[name]
			res := pkgs[name]
			if res.err != nil {
				if name == root {
					return nil, res.err
				}
				opts.Logger.Warn("dependency fetch failed", "package", name, "err", res.err)
				n.Missing = true
				n.Error = apperrors.UserMessage(res.err)
				continue
			}
			n.fill(res.pkg)

			if depth >= opts.MaxDepth {
				if len(dependencies(res.pkg, opts.Peer)) > 0 {
					n.Truncated = true
				}
				continue
			}
			deps := dependencies(res.pkg, opts.Peer)
			for _, dep := range slices.Sorted(maps.Keys(deps)) {
				if _, seen := g.nodes[dep]; !seen {
					if len(g.nodes) >= opts.MaxNodes {
						g.Truncated = true
						n.Truncated = true
						continue
					}
					g.addNode(dep, depth+1)
					next = append(next, dep)
				}
				g.Edges = append(g.Edges, Edge{From: name, To: dep, Range: deps[dep]})
			}
		}
		frontier = next
	}

	return g, nil
}

type fetchResult struct {
	pkg *npm.Package
	err error
}

// fetchLevel fetches names concurrently. Per-package failures are returned in
// the map; only context cancellation fails the level.
func fetchLevel(ctx context.Context, f Fetcher, names []string, workers int) (map[string]fetchResult, error) {
	out := make(map[string]fetchResult, len(names))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range names {
		g.Go(func() error {
			pkg, err := f.FetchPackage(gctx, name)
			mu.Lock()
			out[name] = fetchResult{pkg: pkg, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func dependencies(pkg *npm.Package, peer bool) map[string]string {
	if pkg.Latest == nil {
		return nil
	}
	deps := maps.Clone(pkg.Latest.Dependencies)
	if deps == nil {
		deps = map[string]string{}
	}
	if peer {
		for name, rng := range pkg.Latest.PeerDependencies {
			if _, ok := deps[name]; !ok {
				deps[name] = rng
			}
		}
	}
	for name := range deps {
		if apperrors.ValidatePackageName(name) != nil {
			delete(deps, name)
		}
	}
	return deps
}
