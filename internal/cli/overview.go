package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	"github.com/matzehuels/pkgexplorer/pkg/explorer"
)

// overviewCommand creates the "overview" command.
func (c *CLI) overviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview <name>",
		Short: "Show package, downloads, bundle size, repository and score together",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.showOverview(ctx, cmd, a, args[0])
			})
		},
	}
}

func (c *CLI) showOverview(ctx context.Context, cmd *cobra.Command, a *app.App, name string) error {
	spin := c.startSpinner(ctx, "Fetching "+name)
	o, err := a.Explorer.Overview(ctx, name)
	spin.Stop()
	if err != nil {
		return err
	}
	return c.emit(cmd, o, func(w io.Writer) { printOverview(w, o) })
}

func printOverview(w io.Writer, o *explorer.Overview) {
	p := o.Package
	printTitle(w, p.Name, p.LatestVersion())
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}
	fmt.Fprintln(w)
	printKeyValue(w, "License", p.License)
	printKeyValue(w, "Homepage", p.Homepage)
	if p.Latest != nil {
		printKeyValue(w, "Published", formatTime(p.Latest.PublishedAt))
		printKeyValue(w, "Dependencies", formatCount(len(p.Latest.Dependencies)))
	}
	if o.WeeklyDownloads != nil {
		printKeyValue(w, "Weekly", formatCount(o.WeeklyDownloads.Downloads)+" downloads")
	}
	if o.Bundle != nil {
		printKeyValue(w, "Bundle", formatBytes(o.Bundle.Gzip)+" gzipped, "+formatBytes(o.Bundle.Size)+" minified")
	}
	if o.Repo != nil {
		printKeyValue(w, "Repository", o.Repo.RepoURL)
		printKeyValue(w, "Stars", formatCount(o.Repo.Stars))
		printKeyValue(w, "Last release", formatTime(o.Repo.LastReleaseAt))
	}
	if o.Score != nil {
		printKeyValue(w, "Score", fmt.Sprintf("%s (quality %s, popularity %s, maintenance %s)",
			formatScore(o.Score.Final), formatScore(o.Score.Quality),
			formatScore(o.Score.Popularity), formatScore(o.Score.Maintenance)))
	}
	for _, warn := range o.Warnings {
		printWarning(w, "%s: %s", warn.Source, warn.Message)
	}
}

// compareCommand creates the "compare" command.
func (c *CLI) compareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <name> <name>...",
		Short: fmt.Sprintf("Compare %d to %d packages side by side", explorer.MinCompare, explorer.MaxCompare),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := explorer.ParseNames(strings.Join(args, " "))
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				spin := c.startSpinner(ctx, fmt.Sprintf("Comparing %d packages", len(names)))
				cmp, err := a.Explorer.Compare(ctx, names)
				spin.Stop()
				if err != nil {
					return err
				}
				return c.emit(cmd, cmp, func(w io.Writer) { printComparison(w, cmp) })
			})
		},
	}
}

type compareRow struct {
	label  string
	metric string
	value  func(*explorer.Overview) string
}

var compareRows = []compareRow{
	{"Version", "", func(o *explorer.Overview) string { return o.Package.LatestVersion() }},
	{"License", "", func(o *explorer.Overview) string { return o.Package.License }},
	{"Weekly downloads", explorer.MetricDownloads, func(o *explorer.Overview) string {
		if o.WeeklyDownloads == nil {
			return "-"
		}
		return formatCount(o.WeeklyDownloads.Downloads)
	}},
	{"Stars", explorer.MetricStars, func(o *explorer.Overview) string {
		if o.Repo == nil {
			return "-"
		}
		return formatCount(o.Repo.Stars)
	}},
	{"Bundle (gzip)", explorer.MetricBundleSize, func(o *explorer.Overview) string {
		if o.Bundle == nil {
			return "-"
		}
		return formatBytes(o.Bundle.Gzip)
	}},
	{"Score", explorer.MetricScore, func(o *explorer.Overview) string {
		if o.Score == nil {
			return "-"
		}
		return formatScore(o.Score.Final)
	}},
	{"Dependencies", explorer.MetricDeps, func(o *explorer.Overview) string {
		if o.Package.Latest == nil {
			return "-"
		}
		return formatCount(len(o.Package.Latest.Dependencies))
	}},
	{"Last release", explorer.MetricLastRelease, func(o *explorer.Overview) string {
		if o.Package.Latest == nil || o.Package.Latest.PublishedAt == nil {
			return "-"
		}
		return o.Package.Latest.PublishedAt.Format("2006-01-02")
	}},
}

func printComparison(w io.Writer, cmp *explorer.Comparison) {
	headers := []string{""}
	for _, o := range cmp.Packages {
		headers = append(headers, o.Name())
	}
	rows := make([][]string, len(compareRows))
	for i, r := range compareRows {
		row := []string{r.label}
		for _, o := range cmp.Packages {
			row = append(row, r.value(o))
		}
		rows[i] = row
	}

	t := resultTable(headers...).Rows(rows...).StyleFunc(func(row, col int) lipgloss.Style {
		base := lipgloss.NewStyle().Padding(0, 1)
		if row == -1 {
			return styleHeader.Padding(0, 1)
		}
		if col == 0 {
			return base.Foreground(colorGray)
		}
		if m := compareRows[row].metric; m != "" && cmp.Leaders[m] == cmp.Packages[col-1].Name() {
			return styleLeader.Padding(0, 1)
		}
		return base
	})
	fmt.Fprintln(w, t.Render())

	for _, o := range cmp.Packages {
		for _, warn := range o.Warnings {
			printWarning(w, "%s %s: %s", o.Name(), warn.Source, warn.Message)
		}
	}
}
