package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/gemkit/core"
)

type generateFlags struct {
	prompt      string
	system      string
	temperature float32
	topP        float32
	topK        int
	maxTokens   int
	candidates  int
	stop        []string
	safety      []string
	files       []string
	stream      bool
	jsonMode    bool
}

func (a *App) newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate content from a prompt",
		Long: `Send a generateContent request to the Gemini API.

The prompt comes from --prompt, or from stdin when --prompt is "-".

Examples:
  gemkit generate --prompt "Hello"
  gemkit generate --model gemini-2.5-pro --prompt "Hello" --stream
  gemkit generate --prompt "Describe this" --file photo.jpg
  echo "List three primes" | gemkit generate --prompt - --json-mode --json`,
		Args: cobra.NoArgs,
		RunE: a.runGenerate,
	}

	f := &a.gen
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "user message (required, - reads stdin)")
	cmd.Flags().StringVar(&f.system, "system", "", "system instruction")
	cmd.Flags().Float32Var(&f.temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().Float32Var(&f.topP, "top-p", 0, "nucleus sampling probability")
	cmd.Flags().IntVar(&f.topK, "top-k", 0, "top-k sampling")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "maximum output tokens")
	cmd.Flags().IntVar(&f.candidates, "candidates", 0, "number of candidates to generate")
	cmd.Flags().StringSliceVar(&f.stop, "stop", nil, "stop sequence (repeatable)")
	cmd.Flags().StringSliceVar(&f.safety, "safety", nil, "safety setting CATEGORY=THRESHOLD (repeatable)")
	cmd.Flags().StringSliceVar(&f.files, "file", nil, "attach a file as inline data (repeatable)")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "stream output as it is generated")
	cmd.Flags().BoolVar(&f.jsonMode, "json-mode", false, "ask the model for application/json output")

	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func (a *App) runGenerate(cmd *cobra.Command, args []string) error {
	client, err := a.client()
	if err != nil {
		return err
	}

	builder, err := a.buildRequest(cmd, client)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	if a.gen.stream {
		return a.streamGenerate(cmd.Context(), builder)
	}
	return a.generateOnce(cmd.Context(), builder)
}

func (a *App) buildRequest(cmd *cobra.Command, client *core.Client) (*core.RequestBuilder, error) {
	f := &a.gen

	prompt := f.prompt
	if prompt == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read prompt from stdin: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	parts := []core.Part{core.Text(prompt)}
	for _, path := range f.files {
		part, err := inlineFile(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	b := client.Request(core.ModelID(a.model)).Parts(core.RoleUser, parts...)
	if f.system != "" {
		b.System(f.system)
	}

	flags := cmd.Flags()
	if flags.Changed("temperature") {
		b.Temperature(f.temperature)
	}
	if flags.Changed("top-p") {
		b.TopP(f.topP)
	}
	if flags.Changed("top-k") {
		b.TopK(f.topK)
	}
	if flags.Changed("max-tokens") {
		b.MaxOutputTokens(f.maxTokens)
	}
	if flags.Changed("candidates") {
		b.CandidateCount(f.candidates)
	}
	if len(f.stop) > 0 {
		b.Stop(f.stop...)
	}
	if f.jsonMode {
		b.JSON()
	}
	for _, s := range f.safety {
		category, threshold, ok := strings.Cut(s, "=")
		if !ok || category == "" || threshold == "" {
			return nil, fmt.Errorf("invalid --safety %q: want CATEGORY=THRESHOLD", s)
		}
		b.Safety(strings.ToUpper(category), strings.ToUpper(threshold))
	}
	return b, nil
}

// inlineFile reads path into an InlineData part, typed by extension or content sniffing.
func inlineFile(path string) (core.Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return core.InlineData{MIMEType: mimeType, Data: data}, nil
}

func (a *App) generateOnce(ctx context.Context, b *core.RequestBuilder) error {
	resp, err := b.GetResponse(ctx)
	if err != nil {
		return a.handleCallError(err)
	}

	if a.jsonOutput {
		return a.outputJSON(responseJSON(resp))
	}
	a.printResponse(resp)
	return nil
}

func (a *App) streamGenerate(ctx context.Context, b *core.RequestBuilder) error {
	seq := b.Stream(ctx)

	if a.jsonOutput {
		resp, err := core.Collect(seq)
		if err != nil {
			return a.handleCallError(err)
		}
		return a.outputJSON(responseJSON(resp))
	}

	var usage *core.TokenUsage
	for chunk, err := range seq {
		if err != nil {
			fmt.Fprintln(a.stdout)
			return a.handleCallError(err)
		}
		fmt.Fprint(a.stdout, chunk.Text())
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
	fmt.Fprintln(a.stdout)

	if a.verbose && usage != nil {
		fmt.Fprintf(a.stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
	return nil
}

func (a *App) printResponse(resp *core.GenerationResponse) {
	if len(resp.Candidates) <= 1 {
		fmt.Fprintln(a.stdout, resp.Text())
	} else {
		for _, c := range resp.Candidates {
			fmt.Fprintf(a.stdout, "--- candidate %d (%s)\n%s\n", c.Index, c.FinishReason, c.Content.Text())
		}
	}

	if a.verbose {
		fmt.Fprintf(a.stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
			resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}
}

type candidateJSON struct {
	Index         int                 `json:"index"`
	Text          string              `json:"text"`
	FinishReason  string              `json:"finish_reason"`
	FinishMessage string              `json:"finish_message,omitempty"`
	SafetyRatings []core.SafetyRating `json:"safety_ratings,omitempty"`
	Citations     []core.Citation     `json:"citations,omitempty"`
}

type generateJSON struct {
	Model          core.ModelID         `json:"model"`
	RequestID      string               `json:"request_id,omitempty"`
	Text           string               `json:"text"`
	Candidates     []candidateJSON      `json:"candidates"`
	PromptFeedback *core.PromptFeedback `json:"prompt_feedback,omitempty"`
	Usage          core.TokenUsage      `json:"usage"`
}

func responseJSON(resp *core.GenerationResponse) generateJSON {
	out := generateJSON{
		Model:          resp.Model,
		RequestID:      resp.RequestID,
		Text:           resp.Text(),
		Candidates:     make([]candidateJSON, 0, len(resp.Candidates)),
		PromptFeedback: resp.PromptFeedback,
		Usage:          resp.Usage,
	}
	for _, c := range resp.Candidates {
		out.Candidates = append(out.Candidates, candidateJSON{
			Index:         c.Index,
			Text:          c.Content.Text(),
			FinishReason:  c.FinishReason.String(),
			FinishMessage: c.FinishMessage,
			SafetyRatings: c.SafetyRatings,
			Citations:     c.Citations,
		})
	}
	return out
}

func (a *App) outputJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
