package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/rickrack/internal/config"
)

func newConfigCmd(g *globals) *cobra.Command {
	var write string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the config file, .env and
RICKRACK_* variables have been applied, as TOML.

Use --write to save it, for example as a starting config file:
  rickrack config --write ~/.config/rickrack/config.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if write != "" {
				if err := g.cfg.Save(write); err != nil {
					return err
				}
				g.logger.Info("configuration written", "path", write)
				return nil
			}
			data, err := toml.Marshal(g.cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", pathOrDefault(g.configPath), data)
			return nil
		},
	}

	cmd.Flags().StringVar(&write, "write", "", "write the configuration to this file instead of printing it")
	return cmd
}

func pathOrDefault(path string) string {
	if path != "" {
		return path
	}
	return config.DefaultPath()
}
