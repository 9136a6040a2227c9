package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/integrations/npm"
)

// searchCommand creates the "search" command.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		size        int
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the npm registry",
		Long: `Search the npm registry.

With --interactive, pick a result from a list to show its overview.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				spin := c.startSpinner(ctx, fmt.Sprintf("Searching %q", query))
				res, err := a.NPM.Search(ctx, query, size)
				spin.Stop()
				if err != nil {
					return err
				}

				if !interactive {
					return c.emit(cmd, res, func(w io.Writer) { printSearch(w, query, res) })
				}
				if c.jsonOut || !isTerminal(os.Stdin) {
					return apperrors.New(apperrors.ErrCodeInvalidInput, "--interactive needs a terminal and cannot be combined with --json")
				}
				if len(res.Objects) == 0 {
					printInfo(cmd.OutOrStdout(), "No packages match %q", query)
					return nil
				}

				final, err := tea.NewProgram(NewSearchModel(query, res.Objects), tea.WithContext(ctx)).Run()
				if err != nil {
					return err
				}
				picked := final.(SearchModel).Selected
				if picked == nil {
					return nil
				}
				return c.showOverview(ctx, cmd, a, picked.Package.Name)
			})
		},
	}
	cmd.Flags().IntVarP(&size, "size", "n", npm.DefaultSearchSize, fmt.Sprintf("number of results (max %d)", npm.MaxSearchSize))
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick a result interactively")
	return cmd
}

func printSearch(w io.Writer, query string, res *npm.SearchResult) {
	if len(res.Objects) == 0 {
		printInfo(w, "No packages match %q", query)
		return
	}
	rows := make([][]string, len(res.Objects))
	for i, o := range res.Objects {
		rows[i] = []string{o.Package.Name, o.Package.Version, formatScore(o.Score.Final), truncate(o.Package.Description, 60)}
	}
	fmt.Fprintln(w, resultTable("Package", "Version", "Score", "Description").Rows(rows...).Render())
	printDetail(w, "%d of %s results", len(res.Objects), formatCount(res.Total))
}

func resultTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
