package depgraph

import (
	"slices"
	"strings"

	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
)

// Node is one package in the graph.
type Node struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	License     string `json:"license,omitempty"`
	Depth       int    `json:"depth"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// Missing is set when the package could not be fetched.
	Missing bool   `json:"missing,omitempty"`
	Error   string `json:"error,omitempty"`

	// Truncated is set when some of the node's dependencies were not
	// followed because of the depth or node limits.
	Truncated bool `json:"truncated,omitempty"`
}

// Edge is a dependency from one package to another.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Range string `json:"range,omitempty"`
}

// Graph is a resolved dependency graph.
type Graph struct {
	Root      string  `json:"root"`
	Nodes     []*Node `json:"nodes"` // breadth-first order
	Edges     []Edge  `json:"edges"`
	Truncated bool    `json:"truncated,omitempty"`

	nodes map[string]*Node
}

func newGraph(root string) *Graph {
	return &Graph{Root: root, nodes: make(map[string]*Node)}
}

func (g *Graph) addNode(name string, depth int) *Node {
	n := &Node{Name: name, Depth: depth}
	g.nodes[name] = n
	g.Nodes = append(g.Nodes, n)
	return n
}

// Node returns the node for name.
func (g *Graph) Node(name string) (*Node, bool) {
	if g.nodes == nil {
		g.index()
	}
	n, ok := g.nodes[name]
	return n, ok
}

func (g *Graph) index() {
	g.nodes = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.nodes[n.Name] = n
	}
}

// Children returns the direct dependencies of name in edge order.
func (g *Graph) Children(name string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.From == name {
			out = append(out, e.To)
		}
	}
	return out
}

// Dependents returns the packages depending on name, sorted.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.To == name {
			out = append(out, e.From)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// MaxDepth returns the deepest level reached.
func (g *Graph) MaxDepth() int {
	d := 0
	for _, n := range g.Nodes {
		d = max(d, n.Depth)
	}
	return d
}

// Licenses counts nodes per license. Unknown licenses count as "UNKNOWN".
func (g *Graph) Licenses() map[string]int {
	out := make(map[string]int)
	for _, n := range g.Nodes {
		if n.Missing {
			continue
		}
		l := strings.TrimSpace(n.License)
		if l == "" {
			l = "UNKNOWN"
		}
		out[l]++
	}
	return out
}

func (n *Node) fill(pkg *npm.Package) {
	n.Version = pkg.LatestVersion()
	n.Description = pkg.Description
	n.License = pkg.License
	if pkg.Latest != nil && pkg.Latest.Deprecated != "" {
		n.Deprecated = true
	}
}
