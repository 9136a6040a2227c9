// Package cli implements the pkgexplorer command-line interface.
//
// Commands look up npm packages and their surroundings (downloads, bundle
// size, GitHub repository, quality scores and dependency graphs) through
// the cached fetch client, manage the response cache, and serve the HTTP
// API. Every data command accepts --json for machine-readable output.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	"github.com/matzehuels/pkgexplorer/pkg/buildinfo"
	"github.com/matzehuels/pkgexplorer/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	noCache    bool
	refresh    bool
	jsonOut    bool

	// appOptions is merged into every App; tests inject a transport here.
	appOptions app.Options
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Explore npm packages from the terminal",
		Long: `pkgexplorer looks up npm packages together with their download counts,
bundle sizes, GitHub repositories, quality scores and dependency graphs.
Upstream responses are cached and failed requests are retried with backoff.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			if err := config.LoadDotEnv(); err != nil {
				c.Logger.Warn("ignoring .env", "err", err)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the response cache")
	flags.BoolVar(&c.refresh, "refresh", false, "bypass cached responses and store fresh ones")
	flags.BoolVar(&c.jsonOut, "json", false, "print JSON instead of formatted text")

	root.AddCommand(c.packageCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.downloadsCommand())
	root.AddCommand(c.bundleCommand())
	root.AddCommand(c.repoCommand())
	root.AddCommand(c.overviewCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// App Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// newApp wires the services for one command. Callers must Close it.
func (c *CLI) newApp(ctx context.Context) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := c.appOptions
	opts.NoCache = opts.NoCache || c.noCache
	opts.Refresh = opts.Refresh || c.refresh
	return app.New(ctx, cfg, c.Logger, opts)
}

// withApp runs fn with a freshly wired App.
func (c *CLI) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			c.Logger.Debug("close cache", "err", err)
		}
	}()
	return fn(ctx, a)
}

// =============================================================================
// Output
// =============================================================================

// emit prints v as JSON when --json is set and calls human otherwise.
func (c *CLI) emit(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if c.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

// interactive reports whether spinners and pickers may draw on the terminal.
func (c *CLI) interactive() bool {
	return !c.jsonOut && !c.verbose && isTerminal(os.Stderr)
}
