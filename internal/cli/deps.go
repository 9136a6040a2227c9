package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	"github.com/matzehuels/pkgexplorer/pkg/depgraph"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
)

// depsCommand creates the "deps" command.
func (c *CLI) depsCommand() *cobra.Command {
	var (
		opts     depgraph.Options
		format   string
		output   string
		detailed bool
		rankDir  string
	)

	cmd := &cobra.Command{
		Use:   "deps <name>",
		Short: "Resolve and render a package's dependency graph",
		Long: fmt.Sprintf(`Resolve a package's runtime dependencies breadth-first and render the graph.

Each dependency resolves to its latest version; the declared range is kept
on the edge. The walk stops at --depth (max %d) or --max-nodes (max %d).

Formats: %s. Without -o, DOT and JSON go to stdout; SVG needs -o.`,
			depgraph.MaxDepthLimit, depgraph.MaxNodesLimit, strings.Join(depgraph.Formats, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.jsonOut {
				format = depgraph.FormatJSON
			}
			if !slices.Contains(depgraph.Formats, format) {
				return apperrors.New(apperrors.ErrCodeInvalidFormat, "unsupported format %q (want %s)", format, strings.Join(depgraph.Formats, ", "))
			}
			if format == depgraph.FormatSVG && output == "" {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "--format svg needs --output")
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				spin := c.startSpinner(ctx, "Resolving "+args[0])
				prog := newProgress(c.Logger)
				g, err := a.Graph(ctx, args[0], opts)
				spin.Stop()
				if err != nil {
					return err
				}
				prog.done("Resolved dependency graph", "nodes", len(g.Nodes), "edges", len(g.Edges), "depth", g.MaxDepth())

				out, err := g.Render(ctx, format, depgraph.DOTOptions{Detailed: detailed, RankDir: rankDir})
				if err != nil {
					return err
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(out)
					return err
				}
				if err := os.WriteFile(output, out, 0o644); err != nil {
					return err
				}
				printDepsSummary(cmd.ErrOrStderr(), g)
				printFile(cmd.ErrOrStderr(), output)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.MaxDepth, "depth", "d", depgraph.DefaultMaxDepth, "maximum dependency depth")
	flags.IntVar(&opts.MaxNodes, "max-nodes", depgraph.DefaultMaxNodes, "maximum number of packages")
	flags.IntVar(&opts.Concurrency, "concurrency", depgraph.DefaultConcurrency, "parallel registry requests")
	flags.BoolVar(&opts.Peer, "peer", false, "also follow peer dependencies")
	flags.StringVarP(&format, "format", "f", depgraph.FormatDOT, "output format ("+strings.Join(depgraph.Formats, "|")+")")
	flags.StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	flags.BoolVar(&detailed, "detailed", false, "label nodes with version and license")
	flags.StringVar(&rankDir, "rankdir", "", "Graphviz rank direction (TB, LR, BT, RL)")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(depgraph.Formats, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func printDepsSummary(w io.Writer, g *depgraph.Graph) {
	printSuccess(w, "%s: %d packages, %d edges, depth %d", g.Root, len(g.Nodes), len(g.Edges), g.MaxDepth())
	var missing int
	for _, n := range g.Nodes {
		if n.Missing {
			missing++
		}
	}
	if missing > 0 {
		printWarning(w, "%d packages could not be fetched", missing)
	}
	if g.Truncated {
		printWarning(w, "graph truncated by the depth or node limit")
	}
	licenses := g.Licenses()
	if len(licenses) > 0 {
		parts := make([]string, 0, len(licenses))
		for l, n := range licenses {
			parts = append(parts, fmt.Sprintf("%s×%d", l, n))
		}
		slices.Sort(parts)
		printDetail(w, "licenses: %s", strings.Join(parts, " "))
	}
}
