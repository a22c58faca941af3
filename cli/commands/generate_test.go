package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/petal-labs/gemkit/core"
)

func textResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"index":0,"content":{"role":"model","parts":[{"text":%q}]},"finishReason":"STOP"}],`+
		`"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2,"totalTokenCount":5},"modelVersion":"gemini-2.5-flash"}`, text)
}

func errorResponse(code int, status, message string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":%q,"status":%q}}`, code, message, status)
}

type captured struct {
	path  string
	query string
	body  map[string]any
}

// jsonServer answers every call with status and body, recording the last request.
func jsonServer(t *testing.T, status int, body string, last *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if last != nil {
			last.path = r.URL.Path
			last.query = r.URL.RawQuery
			last.body = nil
			if data, _ := io.ReadAll(r.Body); len(data) > 0 {
				json.Unmarshal(data, &last.body)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExitError(t *testing.T) {
	err := exitWithCode(ExitValidation, errors.New("test error"))

	if err.Error() != "test error" {
		t.Errorf("Error() = %q, want 'test error'", err.Error())
	}

	exitErr, ok := err.(*exitError)
	if !ok {
		t.Fatal("expected *exitError type")
	}
	if exitErr.ExitCode() != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", exitErr.ExitCode(), ExitValidation)
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid request", &core.APIError{Kind: core.KindInvalidRequest}, ExitValidation},
		{"model required", core.ErrModelRequired, ExitValidation},
		{"network", &core.APIError{Kind: core.KindNetwork}, ExitNetwork},
		{"timeout", &core.APIError{Kind: core.KindTimeout}, ExitNetwork},
		{"auth", &core.APIError{Kind: core.KindAuthFailure}, ExitProvider},
		{"rate limited", &core.APIError{Kind: core.KindRateLimited}, ExitProvider},
		{"server", &core.APIError{Kind: core.KindServerError}, ExitProvider},
		{"safety", &core.APIError{Kind: core.KindSafetyBlocked}, ExitProvider},
		{"other", errors.New("boom"), ExitProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGenerateText(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("Hello there"), &last))

	if err := e.run("generate", "--api-key", "k", "--prompt", "Hi"); err != nil {
		t.Fatalf("run() error = %v, stderr = %s", err, e.stderr.String())
	}

	if got := e.stdout.String(); got != "Hello there\n" {
		t.Errorf("stdout = %q, want %q", got, "Hello there\n")
	}
	if last.path != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", last.path)
	}
}

func TestGenerateJSONOutput(t *testing.T) {
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("Bonjour"), nil))

	if err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--json"); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var out generateJSON
	if err := json.Unmarshal(e.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, e.stdout.String())
	}
	if out.Text != "Bonjour" || out.Model != "gemini-2.5-flash" {
		t.Errorf("output = %+v", out)
	}
	if len(out.Candidates) != 1 || out.Candidates[0].FinishReason != "stop" {
		t.Errorf("candidates = %+v", out.Candidates)
	}
	if out.Usage.TotalTokens != 5 {
		t.Errorf("usage = %+v", out.Usage)
	}
	if out.RequestID == "" {
		t.Error("request_id is empty")
	}
}

func TestGenerateFlagsReachRequest(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("{}"), &last))

	err := e.run("generate", "--api-key", "k",
		"--prompt", "Hi",
		"--system", "Be brief.",
		"--temperature", "0.5",
		"--top-k", "20",
		"--max-tokens", "64",
		"--stop", "END",
		"--json-mode",
		"--safety", "harm_category_hate_speech=block_none",
	)
	if err != nil {
		t.Fatalf("run() error = %v, stderr = %s", err, e.stderr.String())
	}

	gc, _ := last.body["generationConfig"].(map[string]any)
	if gc == nil {
		t.Fatalf("generationConfig missing: %v", last.body)
	}
	if gc["temperature"] != 0.5 || gc["topK"] != float64(20) || gc["maxOutputTokens"] != float64(64) {
		t.Errorf("generationConfig = %v", gc)
	}
	if gc["responseMimeType"] != "application/json" {
		t.Errorf("responseMimeType = %v", gc["responseMimeType"])
	}
	if stops, _ := gc["stopSequences"].([]any); len(stops) != 1 || stops[0] != "END" {
		t.Errorf("stopSequences = %v", gc["stopSequences"])
	}
	if _, ok := last.body["systemInstruction"]; !ok {
		t.Error("systemInstruction missing")
	}
	safety, _ := last.body["safetySettings"].([]any)
	if len(safety) != 1 {
		t.Fatalf("safetySettings = %v", last.body["safetySettings"])
	}
	if s := safety[0].(map[string]any); s["category"] != "HARM_CATEGORY_HATE_SPEECH" || s["threshold"] != "BLOCK_NONE" {
		t.Errorf("safety setting = %v", s)
	}
}

func TestGenerateOmitsUnsetConfig(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("x"), &last))

	if err := e.run("generate", "--api-key", "k", "--prompt", "Hi"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if gc, ok := last.body["generationConfig"]; ok {
		t.Errorf("generationConfig = %v, want omitted", gc)
	}
}

func TestGeneratePromptFromStdin(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("x"), &last))
	e.stdin = "  from stdin\n"

	if err := e.run("generate", "--api-key", "k", "--prompt", "-"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	contents, _ := last.body["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("contents = %v", last.body["contents"])
	}
	parts := contents[0].(map[string]any)["parts"].([]any)
	if parts[0].(map[string]any)["text"] != "from stdin" {
		t.Errorf("parts = %v", parts)
	}
}

func TestGenerateAttachesFile(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("x"), &last))

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("some notes"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := e.run("generate", "--api-key", "k", "--prompt", "Summarize", "--file", path); err != nil {
		t.Fatalf("run() error = %v, stderr = %s", err, e.stderr.String())
	}
	parts := last.body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("parts = %v", parts)
	}
	inline, _ := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline == nil || inline["mimeType"] != "text/plain" {
		t.Errorf("inlineData = %v", parts[1])
	}
}

func TestGenerateInvalidSafetyFlag(t *testing.T) {
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("x"), nil))

	err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--safety", "nonsense")
	if code := exitCodeOf(err); code != ExitValidation {
		t.Errorf("exit code = %d, want %d", code, ExitValidation)
	}
}

func TestGenerateInvalidParameterFailsBeforeNetwork(t *testing.T) {
	var last captured
	e := newTestEnv(jsonServer(t, http.StatusOK, textResponse("x"), &last))

	err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--temperature", "5")
	if code := exitCodeOf(err); code != ExitValidation {
		t.Errorf("exit code = %d, want %d", code, ExitValidation)
	}
	if last.path != "" {
		t.Errorf("request was sent to %q", last.path)
	}
}

func TestGenerateStream(t *testing.T) {
	var path, query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "text/event-stream")
		for _, rec := range []string{
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello"}]}}]}`,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":" world"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":2,"totalTokenCount":3}}`,
		} {
			fmt.Fprintf(w, "data: %s\r\n\r\n", rec)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	e := newTestEnv(srv)

	if err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--stream", "--verbose"); err != nil {
		t.Fatalf("run() error = %v, stderr = %s", err, e.stderr.String())
	}
	if got := e.stdout.String(); got != "Hello world\n" {
		t.Errorf("stdout = %q", got)
	}
	if path != "/v1beta/models/gemini-2.5-flash:streamGenerateContent" || query != "alt=sse" {
		t.Errorf("request = %s?%s", path, query)
	}
	stderr := e.stderr.String()
	if !strings.Contains(stderr, "3 total tokens") {
		t.Errorf("stderr missing usage: %q", stderr)
	}
	if !strings.Contains(stderr, "request done") || !strings.Contains(stderr, "chunks=2") {
		t.Errorf("stderr missing telemetry: %q", stderr)
	}
	if !strings.Contains(stderr, "source=flag") {
		t.Errorf("stderr missing key source: %q", stderr)
	}
}

func TestGenerateStreamJSONCollects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"a\"}]}}]}\r\n\r\n")
		io.WriteString(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"b\"}]},\"finishReason\":\"STOP\"}]}\r\n\r\n")
	}))
	t.Cleanup(srv.Close)
	e := newTestEnv(srv)

	if err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--stream", "--json"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var out generateJSON
	if err := json.Unmarshal(e.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if out.Text != "ab" {
		t.Errorf("text = %q, want ab", out.Text)
	}
}

func TestGenerateErrorExitCodes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
		kind   string
	}{
		{"invalid argument", 400, errorResponse(400, "INVALID_ARGUMENT", "bad"), ExitValidation, "invalid_request"},
		{"permission denied", 403, errorResponse(403, "PERMISSION_DENIED", "no"), ExitProvider, "auth_failure"},
		{"rate limited", 429, errorResponse(429, "RESOURCE_EXHAUSTED", "slow down"), ExitProvider, "rate_limited"},
		{"server error", 503, errorResponse(503, "UNAVAILABLE", "later"), ExitProvider, "server_error"},
		{"blocked prompt", 200, `{"promptFeedback":{"blockReason":"SAFETY"}}`, ExitProvider, "safety_blocked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(jsonServer(t, tt.status, tt.body, nil))

			err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--json")
			if code := exitCodeOf(err); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}

			var out map[string]errorBody
			if err := json.Unmarshal(e.stderr.Bytes(), &out); err != nil {
				t.Fatalf("stderr is not JSON: %v\n%s", err, e.stderr.String())
			}
			if out["error"].Type != tt.kind {
				t.Errorf("error type = %q, want %q", out["error"].Type, tt.kind)
			}
		})
	}
}

func TestGenerateNetworkErrorExitCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	e := newTestEnv(srv)
	srv.Close()

	err := e.run("generate", "--api-key", "k", "--prompt", "Hi")
	if code := exitCodeOf(err); code != ExitNetwork {
		t.Errorf("exit code = %d, want %d (err = %v)", code, ExitNetwork, err)
	}
	if !strings.Contains(e.stderr.String(), "Error:") {
		t.Errorf("stderr = %q", e.stderr.String())
	}
}

func TestGenerateRetriesPerConfig(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, errorResponse(503, "UNAVAILABLE", "later"))
			return
		}
		io.WriteString(w, textResponse("finally"))
	}))
	t.Cleanup(srv.Close)

	e := newTestEnv(srv)
	e.cfg.Retry = core.RetryConfig{MaxAttempts: 3, BaseDelay: 1, MaxDelay: 1}

	if err := e.run("generate", "--api-key", "k", "--prompt", "Hi", "--verbose"); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !strings.Contains(e.stderr.String(), "retrying") {
		t.Errorf("stderr missing retry log: %q", e.stderr.String())
	}
}
