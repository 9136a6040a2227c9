package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/integrations"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/bundle"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
)

// packageCommand creates the "package" command.
func (c *CLI) packageCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:     "package <name>",
		Aliases: []string{"pkg", "info"},
		Short:   "Show registry metadata for a package",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if version != "" {
					v, err := a.NPM.FetchVersion(ctx, args[0], version)
					if err != nil {
						return err
					}
					return c.emit(cmd, v, func(w io.Writer) { printVersion(w, v) })
				}
				p, err := a.NPM.FetchPackage(ctx, args[0])
				if err != nil {
					return err
				}
				return c.emit(cmd, p, func(w io.Writer) { printPackage(w, p) })
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "show one version or dist-tag instead of the package")
	return cmd
}

func printPackage(w io.Writer, p *npm.Package) {
	printTitle(w, p.Name, p.LatestVersion())
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	fmt.Fprintln(w)
	printKeyValue(w, "License", p.License)
	printKeyValue(w, "Homepage", p.Homepage)
	printKeyValue(w, "Repository", p.Repository)
	printKeyValue(w, "Versions", formatCount(len(p.Versions)))
	printKeyValue(w, "Created", formatTime(p.Created))
	printKeyValue(w, "Modified", formatTime(p.Modified))
	if len(p.Keywords) > 0 {
		printKeyValue(w, "Keywords", strings.Join(p.Keywords, ", "))
	}
	if len(p.Maintainers) > 0 {
		names := make([]string, len(p.Maintainers))
		for i, m := range p.Maintainers {
			names[i] = m.Name
		}
		printKeyValue(w, "Maintainers", strings.Join(names, ", "))
	}

	tags := make([]string, 0, len(p.DistTags))
	for tag, v := range p.DistTags {
		tags = append(tags, tag+"="+v)
	}
	slices.Sort(tags)
	printKeyValue(w, "Dist-tags", strings.Join(tags, " "))

	if p.Latest != nil {
		printDependencies(w, p.Latest)
		if p.Latest.Deprecated != "" {
			printWarning(w, "deprecated: %s", p.Latest.Deprecated)
		}
	}
}

func printVersion(w io.Writer, v *npm.Version) {
	printTitle(w, v.Name, v.Version)
	if v.Description != "" {
		fmt.Fprintln(w, v.Description)
	}
	fmt.Fprintln(w)
	printKeyValue(w, "License", v.License)
	printKeyValue(w, "Author", v.Author)
	printKeyValue(w, "Published", formatTime(v.PublishedAt))
	printKeyValue(w, "Unpacked", formatBytes(v.Dist.UnpackedSize))
	printKeyValue(w, "Tarball", v.Dist.Tarball)
	printDependencies(w, v)
	if v.Deprecated != "" {
		printWarning(w, "deprecated: %s", v.Deprecated)
	}
}

func printDependencies(w io.Writer, v *npm.Version) {
	if len(v.Dependencies) == 0 {
		printKeyValue(w, "Dependencies", "none")
		return
	}
	printKeyValue(w, "Dependencies", formatCount(len(v.Dependencies)))
	names := make([]string, 0, len(v.Dependencies))
	for name := range v.Dependencies {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		printDetail(w, "%s %s", name, v.Dependencies[name])
	}
}

// downloadsCommand creates the "downloads" command.
func (c *CLI) downloadsCommand() *cobra.Command {
	var (
		period string
		daily  bool
	)

	cmd := &cobra.Command{
		Use:   "downloads <name>",
		Short: "Show download counts for a package",
		Long: fmt.Sprintf(`Show download counts for a package.

--period accepts %s or an explicit YYYY-MM-DD:YYYY-MM-DD range.
--range prints daily counts instead of the total.`, strings.Join(npm.Periods, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if daily {
					r, err := a.NPM.DownloadRange(ctx, args[0], period)
					if err != nil {
						return err
					}
					return c.emit(cmd, r, func(w io.Writer) {
						printTitle(w, r.Package, r.Start+" → "+r.End)
						for _, d := range r.Downloads {
							printKeyValue(w, d.Day, formatCount(d.Downloads))
						}
						printKeyValue(w, "Total", formatCount(r.Total()))
					})
				}
				d, err := a.NPM.Downloads(ctx, args[0], period)
				if err != nil {
					return err
				}
				return c.emit(cmd, d, func(w io.Writer) {
					printTitle(w, d.Package, d.Start+" → "+d.End)
					printKeyValue(w, "Downloads", formatCount(d.Downloads))
				})
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", "last-week", "download period")
	cmd.Flags().BoolVar(&daily, "range", false, "print daily counts")
	_ = cmd.RegisterFlagCompletionFunc("period", cobra.FixedCompletions(npm.Periods, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// bundleCommand creates the "bundle" command.
func (c *CLI) bundleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle <name[@version]>",
		Short: "Show the minified and gzipped bundle size of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				name, version := bundle.SplitSpec(args[0], "")
				s, err := a.Bundle.FetchSize(ctx, name, version)
				if err != nil {
					return err
				}
				return c.emit(cmd, s, func(w io.Writer) { printBundle(w, s) })
			})
		},
	}
}

func printBundle(w io.Writer, s *bundle.Size) {
	printTitle(w, s.Name, s.Version)
	printKeyValue(w, "Minified", formatBytes(s.Size))
	printKeyValue(w, "Gzipped", formatBytes(s.Gzip))
	printKeyValue(w, "Dependencies", formatCount(s.DependencyCount))
	shake := "no"
	if s.TreeShakeable() {
		shake = "yes"
	}
	printKeyValue(w, "Tree-shaking", shake)
	for _, d := range s.DependencySizes {
		printDetail(w, "%s %s", d.Name, formatBytes(d.ApproximateSize))
	}
}

// repoCommand creates the "repo" command.
func (c *CLI) repoCommand() *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "repo <owner/repo>",
		Short: "Show GitHub or GitLab repository metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, err := apperrors.ValidateRepoSlug(args[0])
			if err != nil {
				return err
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				m, err := a.Repo(ctx, host, owner, repo)
				if err != nil {
					return err
				}
				return c.emit(cmd, m, func(w io.Writer) { printRepo(w, m) })
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", app.HostGitHub, "repository host ("+strings.Join(app.RepoHosts, "|")+")")
	_ = cmd.RegisterFlagCompletionFunc("host", cobra.FixedCompletions(app.RepoHosts, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func printRepo(w io.Writer, m *integrations.RepoMetrics) {
	printTitle(w, m.Owner+"/"+m.Name, m.Language)
	if m.Description != "" {
		fmt.Fprintln(w, m.Description)
	}
	fmt.Fprintln(w)
	printKeyValue(w, "URL", m.RepoURL)
	printKeyValue(w, "Stars", formatCount(m.Stars))
	printKeyValue(w, "Forks", formatCount(m.Forks))
	printKeyValue(w, "Open issues", formatCount(m.OpenIssues))
	printKeyValue(w, "License", m.License)
	printKeyValue(w, "Last push", formatTime(m.LastCommitAt))
	printKeyValue(w, "Last release", formatTime(m.LastReleaseAt))
	if len(m.Contributors) > 0 {
		logins := make([]string, len(m.Contributors))
		for i, ct := range m.Contributors {
			logins[i] = ct.Login
		}
		printKeyValue(w, "Contributors", strings.Join(logins, ", "))
	}
	if m.Archived {
		printWarning(w, "repository is archived")
	}
}
