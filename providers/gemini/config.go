package gemini

import (
	"net/http"
	"time"

	"github.com/petal-labs/gemkit/core"
)

// ClientConfig is everything needed to build a ready-to-use client.
// It is read once by NewClient; later changes have no effect.
type ClientConfig struct {
	APIKey       string
	BaseURL      string
	APIVersion   string
	APIClient    string
	DefaultModel core.ModelID
	Retry        core.RetryConfig
	Timeout      time.Duration
	HTTPClient   *http.Client
	Headers      http.Header
}

// NewClient builds a core.Client backed by a Gemini provider.
// Zero Retry fields take the core defaults; an empty DefaultModel uses DefaultModel.
func NewClient(cfg ClientConfig, opts ...core.ClientOption) *core.Client {
	var popts []Option
	if cfg.BaseURL != "" {
		popts = append(popts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIVersion != "" {
		popts = append(popts, WithAPIVersion(cfg.APIVersion))
	}
	if cfg.APIClient != "" {
		popts = append(popts, WithAPIClient(cfg.APIClient))
	}
	if cfg.HTTPClient != nil {
		popts = append(popts, WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		popts = append(popts, WithTimeout(cfg.Timeout))
	}
	for key, values := range cfg.Headers {
		for _, v := range values {
			popts = append(popts, withAddedHeader(key, v))
		}
	}

	model := cfg.DefaultModel
	if model == "" {
		model = DefaultModel
	}

	base := []core.ClientOption{
		core.WithRetryPolicy(core.NewRetryPolicy(cfg.Retry)),
		core.WithDefaultModel(model),
	}
	return core.NewClient(New(cfg.APIKey, popts...), append(base, opts...)...)
}

func withAddedHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Add(key, value)
	}
}
