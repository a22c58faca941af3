package gemini

import (
	"net/http"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	custom := &http.Client{Timeout: 30 * time.Second}

	tests := []struct {
		name  string
		opt   Option
		check func(*Config) bool
	}{
		{"base url", WithBaseURL("https://custom.api.com"), func(c *Config) bool { return c.BaseURL == "https://custom.api.com" }},
		{"api version", WithAPIVersion("v1"), func(c *Config) bool { return c.APIVersion == "v1" }},
		{"api client", WithAPIClient("my-app/1.0"), func(c *Config) bool { return c.APIClient == "my-app/1.0" }},
		{"http client", WithHTTPClient(custom), func(c *Config) bool { return c.HTTPClient == custom }},
		{"header", WithHeader("X-Custom", "value"), func(c *Config) bool { return c.Headers.Get("X-Custom") == "value" }},
		{"timeout", WithTimeout(time.Minute), func(c *Config) bool { return c.Timeout == time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.opt(cfg)
			if !tt.check(cfg) {
				t.Errorf("option not applied: %+v", cfg)
			}
		})
	}
}

func TestWithHeaderReplaces(t *testing.T) {
	cfg := &Config{}
	WithHeader("X-Custom", "a")(cfg)
	WithHeader("X-Custom", "b")(cfg)

	if got := cfg.Headers.Values("X-Custom"); len(got) != 1 || got[0] != "b" {
		t.Errorf("X-Custom = %v, want [b]", got)
	}
}

func TestWithAddedHeaderAppends(t *testing.T) {
	cfg := &Config{}
	withAddedHeader("X-Custom", "a")(cfg)
	withAddedHeader("X-Custom", "b")(cfg)

	if got := cfg.Headers.Values("X-Custom"); len(got) != 2 {
		t.Errorf("X-Custom = %v, want two values", got)
	}
}
