package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgexplorer/pkg/config"
	apperrors "github.com/matzehuels/pkgexplorer/pkg/errors"
)

// configCommand creates the "config" command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		Long: fmt.Sprintf(`Inspect the effective configuration.

Settings are read from the config file (default %s)
and then overridden by %s* environment variables. A .env file in the working
directory is loaded first.`, config.DefaultPath(), config.EnvPrefix),
	}

	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configEnvCommand())
	return cmd
}

func (c *CLI) configFile() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), c.configFile())
			return err
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.emit(cmd, cfg, nil)
			}
			return cfg.Encode(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format (toml|yaml)")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"toml", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configFile()
			if _, err := os.Stat(path); err == nil && !force {
				return apperrors.New(apperrors.ErrCodeInvalidInput, "%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			format := "toml"
			if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
				format = "yaml"
			}
			if err := config.Default().Encode(f, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			w := cmd.ErrOrStderr()
			printSuccess(w, "Wrote default configuration")
			printFile(w, path)
			printNextStep(w, "Review the effective settings", appName+" config show")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// configEnvCommand creates the "config env" subcommand.
func (c *CLI) configEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the supported environment variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars := config.EnvVars()
			return c.emit(cmd, vars, func(w io.Writer) {
				for _, v := range vars {
					fmt.Fprintln(w, v)
				}
			})
		},
	}
}
