package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	"github.com/matzehuels/pkgexplorer/internal/metrics"
	"github.com/matzehuels/pkgexplorer/internal/server"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API over HTTP",
		Long: `Serve package lookups as a JSON API under /api/v1, with /healthz and
Prometheus metrics at /metrics. The server shares the configured cache and
shuts down gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if addr != "" {
					a.Config.Server.Addr = addr
				}
				metrics.Register()
				return server.New(a, c.Logger).ListenAndServe(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
