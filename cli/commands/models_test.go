package commands

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/petal-labs/gemkit/core"
)

const modelsPage = `{"models":[
 {"name":"models/gemini-2.5-flash","displayName":"Gemini 2.5 Flash","inputTokenLimit":1048576,"outputTokenLimit":65536,"supportedGenerationMethods":["generateContent","countTokens"]},
 {"name":"models/text-embedding-004","displayName":"Embedding","inputTokenLimit":2048,"outputTokenLimit":1,"supportedGenerationMethods":["embedContent"]}
]}`

func TestModelsTable(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, modelsPage, &last))

	if err := e.run("models", "--api-key", "k"); err != nil {
		t.Fatalf("run() error = %v, stderr = %s", err, e.stderr.String())
	}
	if last.path != "/v1beta/models" {
		t.Errorf("path = %q", last.path)
	}

	lines := strings.Split(strings.TrimSpace(e.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output = %q", e.stdout.String())
	}
	if !strings.HasPrefix(lines[0], "MODEL") || !strings.HasPrefix(lines[1], "gemini-2.5-flash") {
		t.Errorf("output = %q", e.stdout.String())
	}
}

func TestModelsFilterJSON(t *testing.T) {
	e := newTestEnv(jsonServer(t, http.StatusOK, modelsPage, nil))

	if err := e.run("models", "--api-key", "k", "--method", "generateContent", "--json"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var models []core.ModelInfo
	if err := json.Unmarshal(e.stdout.Bytes(), &models); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if len(models) != 1 || models[0].ID != "gemini-2.5-flash" {
		t.Errorf("models = %+v", models)
	}
}

func TestModelsAuthError(t *testing.T) {
	e := newTestEnv(jsonServer(t, http.StatusUnauthorized, errorResponse(401, "UNAUTHENTICATED", "bad key"), nil))

	if code := exitCodeOf(e.run("models", "--api-key", "k")); code != ExitProvider {
		t.Errorf("exit code = %d, want %d", code, ExitProvider)
	}
}

func TestTokensCommand(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, `{"totalTokens":12}`, &last))

	if err := e.run("tokens", "--api-key", "k", "--prompt", "How long is this?", "--system", "sys"); err != nil {
		t.Fatalf("run() error = %v, stderr = %s", err, e.stderr.String())
	}
	if got := strings.TrimSpace(e.stdout.String()); got != "12" {
		t.Errorf("stdout = %q, want 12", got)
	}
	if last.path != "/v1beta/models/gemini-2.5-flash:countTokens" {
		t.Errorf("path = %q", last.path)
	}
	if _, ok := last.body["generationConfig"]; ok {
		t.Error("countTokens body should not carry generationConfig")
	}
	if _, ok := last.body["systemInstruction"]; !ok {
		t.Error("countTokens body missing systemInstruction")
	}
}

func TestTokensJSON(t *testing.T) {
	e := newTestEnv(jsonServer(t, http.StatusOK, `{"totalTokens":7}`, nil))

	if err := e.run("tokens", "--api-key", "k", "--prompt", "x", "--json"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var out struct {
		Model       string `json:"model"`
		TotalTokens int    `json:"total_tokens"`
	}
	if err := json.Unmarshal(e.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if out.TotalTokens != 7 || out.Model != "gemini-2.5-flash" {
		t.Errorf("output = %+v", out)
	}
}
