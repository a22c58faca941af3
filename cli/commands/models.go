package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/gemkit/core"
)

// modelLister is implemented by providers that can enumerate models.
type modelLister interface {
	ListModels(ctx context.Context) ([]core.ModelInfo, error)
}

func (a *App) newModelsCommand() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models",
		Long: `List the models visible to the configured API key.

Examples:
  gemkit models
  gemkit models --method generateContent --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			lister, ok := client.Provider().(modelLister)
			if !ok {
				return exitWithCode(ExitValidation, fmt.Errorf("provider %s cannot list models", client.Provider().ID()))
			}

			models, err := lister.ListModels(cmd.Context())
			if err != nil {
				return a.handleCallError(err)
			}
			if method != "" {
				filtered := models[:0]
				for _, m := range models {
					if m.Supports(method) {
						filtered = append(filtered, m)
					}
				}
				models = filtered
			}

			if a.jsonOutput {
				return a.outputJSON(models)
			}
			return a.printModels(models)
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "only models supporting this method (e.g. generateContent)")
	return cmd
}

func (a *App) printModels(models []core.ModelInfo) error {
	if len(models) == 0 {
		fmt.Fprintln(a.stdout, "No models found.")
		return nil
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tINPUT\tOUTPUT\tMETHODS")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", m.ID, m.InputTokenLimit, m.OutputTokenLimit, strings.Join(m.Methods, ","))
	}
	return tw.Flush()
}
