package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/internal/app"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
	"github.com/matzehuels/pkgexplorer/pkg/store"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the response cache",
		Long: `Inspect and manage cached upstream responses.

Keys have the form <source>:<kind>:<name>, for example npm:pkg:react or
github:repo:facebook/react.`,
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheGetCommand())
	cmd.AddCommand(c.cacheDeleteCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where responses are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch cfg.Cache.Backend {
			case store.BackendFile, "":
				fmt.Fprintln(w, cfg.Cache.Dir)
			case store.BackendRedis:
				fmt.Fprintf(w, "redis %s (prefix %q)\n", cfg.Cache.RedisURL, cfg.Cache.RedisPrefix)
			case store.BackendMongo:
				fmt.Fprintf(w, "mongo %s/%s\n", cfg.Cache.MongoDatabase, cfg.Cache.MongoCollection)
			default:
				fmt.Fprintf(w, "%s backend (not persisted to a path)\n", cfg.Cache.Backend)
			}
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				cl, ok := a.Store.(store.Clearer)
				if !ok {
					return apperrors.New(apperrors.ErrCodeUnsupported,
						"the %s cache backend cannot be cleared", a.Config.Cache.Backend)
				}
				n, err := cl.Clear(ctx)
				if err != nil {
					return apperrors.Wrap(apperrors.ErrCodeInternal, err, "clear cache")
				}
				return c.emit(cmd, map[string]int{"removed": n}, func(w io.Writer) {
					printSuccess(w, "Cleared %d cached entries", n)
				})
			})
		},
	}
}

type cacheEntry struct {
	Key       string     `json:"key"`
	StoredAt  time.Time  `json:"stored_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Value     any        `json:"value"`
}

// cacheGetCommand creates the "cache get" subcommand.
func (c *CLI) cacheGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a cached response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				e, ok := a.Cache.Read(ctx, args[0], 0)
				if !ok {
					return apperrors.New(apperrors.ErrCodeNotFound, "no fresh cache entry for %q", args[0])
				}
				out := cacheEntry{Key: args[0], StoredAt: e.StoredAt, Value: e.Value}
				if !e.ExpiresAt.IsZero() {
					out.ExpiresAt = &e.ExpiresAt
				}
				if c.jsonOut {
					return c.emit(cmd, out, nil)
				}
				now := time.Now()
				w := cmd.OutOrStdout()
				printKeyValue(w, "Key", args[0])
				printKeyValue(w, "Stored", formatTime(&e.StoredAt))
				printKeyValue(w, "Age", e.Age(now).Round(time.Second).String())
				if out.ExpiresAt != nil {
					printKeyValue(w, "Expires", formatTime(out.ExpiresAt))
				} else {
					printKeyValue(w, "Expires", "never")
				}
				printKeyValue(w, "Size", formatBytes(int64(len(e.Value))))
				fmt.Fprintln(w)
				_, err := fmt.Fprintln(w, string(e.Value))
				return err
			})
		},
	}
}

// cacheDeleteCommand creates the "cache delete" subcommand.
func (c *CLI) cacheDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <key>...",
		Aliases: []string{"rm"},
		Short:   "Remove cached responses by key",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				for _, key := range args {
					a.Cache.Delete(ctx, key)
				}
				printSuccess(cmd.ErrOrStderr(), "Removed %d keys", len(args))
				return nil
			})
		},
	}
}
