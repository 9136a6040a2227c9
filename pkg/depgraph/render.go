package depgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
)

// DOTOptions configures DOT output.
type DOTOptions struct {
	// Detailed adds version and license to node labels.
	Detailed bool

	// RankDir is the Graphviz layout direction ("TB", "LR"). Empty means "TB".
	RankDir string
}

// ToDOT converts the graph to Graphviz DOT format.
// The root is drawn bold, missing packages dashed red, deprecated packages
// orange, and truncated packages with a double border.
func (g *Graph) ToDOT(opts DOTOptions) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "TB"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#888888\", arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed))}
		attrs = append(attrs, nodeStyle(n, n.Name == g.Root)...)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if opts.Detailed && e.Range != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=9];\n", e.From, e.To, e.Range)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	parts := []string{n.Name}
	if n.Version != "" {
		parts[0] += "@" + n.Version
	}
	if n.License != "" {
		parts = append(parts, n.License)
	}
	if n.Missing {
		parts = append(parts, "(not found)")
	}
	return strings.Join(parts, "\n")
}

func nodeStyle(n *Node, root bool) []string {
	var attrs []string
	switch {
	case n.Missing:
		attrs = append(attrs, `style="rounded,filled,dashed"`, "color=red", "fillcolor=mistyrose")
	case n.Deprecated:
		attrs = append(attrs, "fillcolor=orange")
	case root:
		attrs = append(attrs, "fillcolor=lightblue")
	}
	if root {
		attrs = append(attrs, "penwidth=2")
	}
	if n.Truncated {
		attrs = append(attrs, "peripheries=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// Output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// Formats lists the formats accepted by [Graph.Render].
var Formats = []string{FormatDOT, FormatSVG, FormatJSON}

// Render produces the graph in one of the [Formats].
func (g *Graph) Render(ctx context.Context, format string, opts DOTOptions) ([]byte, error) {
	switch format {
	case FormatDOT, "":
		return []byte(g.ToDOT(opts)), nil
	case FormatSVG:
		return RenderSVG(ctx, g.ToDOT(opts))
	case FormatJSON:
		return json.MarshalIndent(g, "", "  ")
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unsupported graph format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
