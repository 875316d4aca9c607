// Package cli provides the command-line interface for rickrack.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/rickrack/internal/config"
	"github.com/jmylchreest/rickrack/internal/version"
)

// globals is the state shared by every subcommand, filled in before each
// command runs.
type globals struct {
	verbose    bool
	quiet      bool
	configPath string

	cfg    config.Config
	logger hclog.Logger
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   version.Name,
		Short: "A colour harmony workbench",
		Long: `rickrack builds five-colour harmonies from a single anchor colour, blends
them into colour boards, and extracts representative palettes from images.

Settings are read from $XDG_CONFIG_HOME/rickrack/config.toml, a .env file in
the working directory and RICKRACK_* environment variables, in that order.`,
		Version:      version.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/rickrack/config.toml)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		newHarmonyCmd(g),
		newGridCmd(g),
		newExtractCmd(g),
		newServeCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func (g *globals) load(stderr io.Writer) error {
	level := hclog.Info
	switch {
	case g.verbose:
		level = hclog.Debug
	case g.quiet:
		level = hclog.Error
	}
	g.logger = hclog.New(&hclog.LoggerOptions{
		Name:   version.Name,
		Output: stderr,
		Level:  level,
	})

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	g.cfg = cfg
	g.logger.Debug("configuration loaded", "path", g.configPath, "rule", cfg.Colour.Rule, "col", cfg.Grid.Col)
	return nil
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.GetInfo())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
