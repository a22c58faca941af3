package gemini

import (
	"net/http"
	"testing"
	"time"

	"github.com/petal-labs/gemkit/core"
	"github.com/petal-labs/gemkit/providers/internal/mockserver"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "k"})

	if c.DefaultModel() != DefaultModel {
		t.Errorf("DefaultModel() = %q, want %q", c.DefaultModel(), DefaultModel)
	}
	p, ok := c.Provider().(*Gemini)
	if !ok {
		t.Fatalf("Provider() = %T, want *Gemini", c.Provider())
	}
	if p.config.BaseURL != DefaultBaseURL || p.apiVersion() != DefaultAPIVersion {
		t.Errorf("config = %+v", p.config)
	}
}

func TestNewClientAppliesConfig(t *testing.T) {
	srv := mockserver.New(t,
		mockserver.Step{Status: 500, Body: mockserver.ErrorBody(500, "INTERNAL", "boom")},
		mockserver.Step{Body: mockserver.TextResponse("ok", "STOP")},
	)

	c := NewClient(ClientConfig{
		APIKey:       "k",
		BaseURL:      srv.URL,
		APIVersion:   "v1",
		APIClient:    "cfg-test/1",
		DefaultModel: ModelGemini20Flash,
		Retry:        core.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond},
		Timeout:      5 * time.Second,
		HTTPClient:   &http.Client{},
		Headers:      http.Header{"X-Env": {"a", "b"}},
	})

	resp, err := c.Generate(t.Context(), userRequest("Hi"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if resp.Text() != "ok" {
		t.Errorf("Text() = %q", resp.Text())
	}

	req := srv.Requests()[1]
	if req.Model != string(ModelGemini20Flash) {
		t.Errorf("model = %q", req.Model)
	}
	if req.Header.Get("x-goog-api-client") != "cfg-test/1" {
		t.Errorf("x-goog-api-client = %q", req.Header.Get("x-goog-api-client"))
	}
	if got := req.Header.Values("X-Env"); len(got) != 2 {
		t.Errorf("X-Env = %v, want both values", got)
	}
}
