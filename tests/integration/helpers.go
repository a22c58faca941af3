//go:build integration

// Package integration runs gemkit against the live Gemini API.
package integration

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"testing"
)

// isCI returns true if running in a CI environment.
func isCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// skipIfNoGeminiKey skips the test if GEMINI_API_KEY is not set.
// In CI, it fails unless GEMKIT_SKIP_INTEGRATION is set.
func skipIfNoGeminiKey(t *testing.T) {
	t.Helper()
	if os.Getenv("GEMINI_API_KEY") != "" {
		return
	}
	if isCI() && os.Getenv("GEMKIT_SKIP_INTEGRATION") == "" {
		t.Fatal("GEMINI_API_KEY not set (CI environment detected; set GEMKIT_SKIP_INTEGRATION=1 to skip)")
	}
	t.Skip("GEMINI_API_KEY not set")
}

// getGeminiKey returns the Gemini API key from environment.
func getGeminiKey(t *testing.T) string {
	t.Helper()
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Fatal("GEMINI_API_KEY not set")
	}
	return key
}

// cliResult holds the result of running a CLI command.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// cli runs the gemkit binary with HOME pointed at a per-test directory,
// so the user's config and keystore are never touched.
type cli struct {
	t    *testing.T
	home string
}

func newCLI(t *testing.T) cli {
	t.Helper()
	return cli{t: t, home: t.TempDir()}
}

// run executes the gemkit CLI with the given arguments.
func (c cli) run(args ...string) cliResult {
	c.t.Helper()
	return c.runWithStdin("", args...)
}

// runWithStdin executes the gemkit CLI with stdin input.
func (c cli) runWithStdin(stdin string, args ...string) cliResult {
	c.t.Helper()

	binaryPath := getCliBinary()
	if binaryPath == "" {
		c.t.Fatal("CLI binary not built - TestMain may not have run")
	}

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+c.home, "GEMKIT_MASTER_KEY=integration-test")
	cmd.Stdin = bytes.NewBufferString(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			c.t.Fatalf("Failed to run CLI: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}

	return cliResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}
