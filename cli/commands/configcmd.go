package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/gemkit/cli/config"
	"github.com/petal-labs/gemkit/core"
	"github.com/petal-labs/gemkit/providers/gemini"
)

func (a *App) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the loaded configuration (API keys redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Redacted()
			if a.jsonOutput {
				return a.outputJSON(cfg)
			}
			fmt.Fprintf(a.stdout, "# %s\n", a.configPath())
			return yaml.NewEncoder(a.stdout).Encode(cfg)
		},
	})

	var force bool
	create := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return exitWithCode(ExitValidation, fmt.Errorf("%s already exists (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			cfg := &config.Config{
				DefaultModel: string(gemini.DefaultModel),
				APIVersion:   gemini.DefaultAPIVersion,
				Retry:        core.DefaultRetryConfig(),
			}
			if a.model != "" {
				cfg.DefaultModel = a.model
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	create.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(create)

	return cmd
}
