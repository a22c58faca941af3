package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/gemkit/providers/gemini"
)

func (a *App) newInitCommand() *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "init <project-name>",
		Short: "Scaffold a Go program that calls Gemini",
		Long: `Create a project directory with a starter program using the gemkit library.

Creates:
  - go.mod: module requiring github.com/petal-labs/gemkit
  - main.go: a generate (or --stream) call reading GEMINI_API_KEY

Example:
  gemkit init myapp
  gemkit init myapp --model gemini-2.5-pro --stream`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := a.model
			if model == "" {
				model = string(gemini.DefaultModel)
			}
			if err := scaffoldProject(args[0], templateData{Model: model, Stream: stream}); err != nil {
				return exitWithCode(ExitValidation, err)
			}

			fmt.Fprintf(a.stdout, "Created gemkit project: %s\n\n", filepath.Base(args[0]))
			fmt.Fprintln(a.stdout, "Next steps:")
			fmt.Fprintf(a.stdout, "  cd %s\n", args[0])
			fmt.Fprintf(a.stdout, "  export %s=<your-key>\n", APIKeyEnv)
			fmt.Fprintln(a.stdout, "  go mod tidy && go run .")
			return nil
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "generate a streaming example")
	return cmd
}

type templateData struct {
	Name    string
	Model   string
	Stream  bool
	Version string
}

var validName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}
	if name == "gemkit" {
		return fmt.Errorf("invalid project name %q: reserved name", name)
	}
	return nil
}

func scaffoldProject(projectPath string, data templateData) error {
	data.Name = filepath.Base(projectPath)
	data.Version = "v" + gemini.Version
	if err := validateProjectName(data.Name); err != nil {
		return err
	}

	if _, err := os.Stat(projectPath); err == nil {
		return fmt.Errorf("directory %q already exists", projectPath)
	}
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", projectPath, err)
	}

	files := []struct {
		name string
		tmpl string
	}{
		{"go.mod", goModTemplate},
		{"main.go", mainGoTemplate},
	}
	for _, f := range files {
		if err := generateFile(filepath.Join(projectPath, f.name), f.tmpl, data); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.name, err)
		}
	}
	return nil
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New(filepath.Base(path)).Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var goModTemplate = `module {{.Name}}

go 1.25

require github.com/petal-labs/gemkit {{.Version}}
`

var mainGoTemplate = `package main

import (
	"context"
	"fmt"
	"os"

	"github.com/petal-labs/gemkit/providers/gemini"
)

func main() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY not set")
		os.Exit(1)
	}

	client := gemini.NewClient(gemini.ClientConfig{
		APIKey:       apiKey,
		DefaultModel: "{{.Model}}",
	})
{{if .Stream}}
	stream := client.Request("").
		User("Write a haiku about the sea.").
		Stream(context.Background())
	for chunk, err := range stream {
		if err != nil {
			fmt.Fprintln(os.Stderr, "\nError:", err)
			os.Exit(1)
		}
		fmt.Print(chunk.Text())
	}
	fmt.Println()
{{- else}}
	resp, err := client.Request("").
		User("Hello, world!").
		GetResponse(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	fmt.Println(resp.Text())
{{- end}}
}
`
