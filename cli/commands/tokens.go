package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/gemkit/core"
)

// tokenCounter is implemented by providers that can count prompt tokens.
type tokenCounter interface {
	CountTokens(ctx context.Context, req *core.GenerationRequest) (int, error)
}

func (a *App) newTokensCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Count the tokens a prompt would use",
		Long: `Count prompt tokens with the countTokens method, without generating.

Examples:
  gemkit tokens --prompt "How long is this?"
  gemkit tokens --prompt - < essay.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			counter, ok := client.Provider().(tokenCounter)
			if !ok {
				return exitWithCode(ExitValidation, fmt.Errorf("provider %s cannot count tokens", client.Provider().ID()))
			}

			b, err := a.buildRequest(cmd, client)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			req, err := b.Build()
			if err != nil {
				return a.handleCallError(err)
			}

			n, err := counter.CountTokens(cmd.Context(), req)
			if err != nil {
				return a.handleCallError(err)
			}

			if a.jsonOutput {
				return a.outputJSON(map[string]any{"model": req.Model, "total_tokens": n})
			}
			fmt.Fprintln(a.stdout, n)
			return nil
		},
	}

	f := &a.gen
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "user message (required, - reads stdin)")
	cmd.Flags().StringVar(&f.system, "system", "", "system instruction")
	cmd.Flags().StringSliceVar(&f.files, "file", nil, "attach a file as inline data (repeatable)")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}
