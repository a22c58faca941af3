//go:build integration

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLI_Generate(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.run("generate",
		"--model", "gemini-2.5-flash-lite",
		"--prompt", "Say 'hello' and nothing else.")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if result.Stdout == "" {
		t.Error("Stdout is empty")
	}
	t.Logf("Output: %s", result.Stdout)
}

func TestCLI_Generate_Streaming(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.run("generate",
		"--model", "gemini-2.5-flash-lite",
		"--prompt", "Count from 1 to 3.",
		"--stream")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "3") {
		t.Errorf("Stdout = %q, want it to contain 3", result.Stdout)
	}
}

func TestCLI_Generate_JSON(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.runWithStdin("Say hello.",
		"generate", "--model", "gemini-2.5-flash-lite", "--prompt", "-", "--json")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	var output map[string]any
	if err := json.Unmarshal([]byte(result.Stdout), &output); err != nil {
		t.Fatalf("Output is not valid JSON: %v\nOutput: %s", err, result.Stdout)
	}
	for _, field := range []string{"text", "usage", "request_id"} {
		if _, ok := output[field]; !ok {
			t.Errorf("JSON output missing %q field", field)
		}
	}
}

func TestCLI_Generate_FromKeystore(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.runWithStdin(getGeminiKey(t)+"\n", "keys", "set")
	if result.ExitCode != 0 {
		t.Fatalf("keys set exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}

	// The environment variable wins over the keystore, so blank it.
	t.Setenv("GEMINI_API_KEY", "")
	result = c.run("generate", "--model", "gemini-2.5-flash-lite", "--prompt", "Say hi.")
	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
}

func TestCLI_Generate_InvalidKey(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.run("generate", "--api-key", "invalid-key", "--prompt", "Hello", "--json")
	// The service reports a bad key as 400 or 401/403 depending on the endpoint.
	if result.ExitCode != 1 && result.ExitCode != 2 {
		t.Errorf("Exit code = %d, want 1 or 2\nStderr: %s", result.ExitCode, result.Stderr)
	}

	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(result.Stderr), &body); err != nil {
		t.Fatalf("Stderr is not JSON: %v\n%s", err, result.Stderr)
	}
	if body.Error.Type == "" {
		t.Error("error type is empty")
	}
}

func TestCLI_Generate_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := newCLI(t)

	result := c.run("generate", "--prompt", "Hello")
	if result.ExitCode == 0 {
		t.Error("Expected non-zero exit code for missing key")
	}
	if !strings.Contains(result.Stderr, "API key") {
		t.Errorf("Stderr should mention the API key, got: %s", result.Stderr)
	}
}

func TestCLI_Generate_InvalidTemperature(t *testing.T) {
	c := newCLI(t)

	result := c.run("generate", "--api-key", "unused", "--prompt", "Hello", "--temperature", "5")
	if result.ExitCode != 1 {
		t.Errorf("Exit code = %d, want 1\nStderr: %s", result.ExitCode, result.Stderr)
	}
}

func TestCLI_Models(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.run("models", "--method", "generateContent")
	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "gemini-") {
		t.Errorf("models output should list gemini models, got: %s", result.Stdout)
	}
}

func TestCLI_Tokens(t *testing.T) {
	skipIfNoGeminiKey(t)
	c := newCLI(t)

	result := c.run("tokens", "--model", "gemini-2.5-flash-lite", "--prompt", "one two three", "--json")
	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	var out struct {
		TotalTokens int `json:"total_tokens"`
	}
	if err := json.Unmarshal([]byte(result.Stdout), &out); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, result.Stdout)
	}
	if out.TotalTokens <= 0 {
		t.Errorf("total_tokens = %d, want > 0", out.TotalTokens)
	}
}

func TestCLI_Init(t *testing.T) {
	c := newCLI(t)
	projectPath := filepath.Join(t.TempDir(), "testproject")

	result := c.run("init", projectPath, "--stream")
	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	for _, file := range []string{"go.mod", "main.go"} {
		if _, err := os.Stat(filepath.Join(projectPath, file)); err != nil {
			t.Errorf("File %s not created: %v", file, err)
		}
	}

	content, err := os.ReadFile(filepath.Join(projectPath, "main.go"))
	if err != nil {
		t.Fatalf("Failed to read main.go: %v", err)
	}
	for _, want := range []string{"package main", "func main()", "Stream("} {
		if !strings.Contains(string(content), want) {
			t.Errorf("main.go should contain %q", want)
		}
	}
}

func TestCLI_Init_ExistingDirectory(t *testing.T) {
	c := newCLI(t)
	projectPath := filepath.Join(t.TempDir(), "existing")
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}

	result := c.run("init", projectPath)
	if result.ExitCode == 0 {
		t.Error("Expected non-zero exit code for existing directory")
	}
	if !strings.Contains(result.Stderr, "exists") {
		t.Errorf("Stderr should mention exists, got: %s", result.Stderr)
	}
}

func TestCLI_Keys(t *testing.T) {
	c := newCLI(t)
	name := "integration"

	result := c.runWithStdin("test-api-key-12345\n", "keys", "set", name)
	if result.ExitCode != 0 {
		t.Errorf("keys set exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	result = c.run("keys", "list")
	if !strings.Contains(result.Stdout, name) {
		t.Errorf("keys list should contain %s, got: %s", name, result.Stdout)
	}
	if strings.Contains(result.Stdout, "test-api-key-12345") {
		t.Error("keys list must not print key values")
	}

	result = c.run("keys", "delete", name)
	if result.ExitCode != 0 {
		t.Errorf("keys delete exit code = %d, want 0\nStderr: %s", result.ExitCode, result.Stderr)
	}

	result = c.run("keys", "list")
	if strings.Contains(result.Stdout, name) {
		t.Errorf("keys list should not contain %s after delete", name)
	}
}

func TestCLI_ConfigInitAndShow(t *testing.T) {
	c := newCLI(t)

	result := c.run("config", "init")
	if result.ExitCode != 0 {
		t.Fatalf("config init exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}

	result = c.run("config", "show")
	if result.ExitCode != 0 {
		t.Fatalf("config show exit code = %d\nStderr: %s", result.ExitCode, result.Stderr)
	}
	if !strings.Contains(result.Stdout, "default_model") {
		t.Errorf("config show output missing default_model: %s", result.Stdout)
	}
}

func TestCLI_Help(t *testing.T) {
	c := newCLI(t)
	result := c.run("--help")

	if result.ExitCode != 0 {
		t.Errorf("Exit code = %d, want 0", result.ExitCode)
	}
	for _, cmd := range []string{"generate", "models", "tokens", "keys", "config", "init", "version"} {
		if !strings.Contains(result.Stdout, cmd) {
			t.Errorf("Help should mention '%s' command", cmd)
		}
	}
}
