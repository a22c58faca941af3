package gemini

import (
	"net/http"
	"time"

	"github.com/petal-labs/gemkit/core"
)

// Config holds configuration for the Gemini provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey core.Secret

	// BaseURL is the API base URL. Defaults to https://generativelanguage.googleapis.com
	BaseURL string

	// APIVersion is the path version segment. Defaults to v1beta.
	APIVersion string

	// APIClient is sent as x-goog-api-client for usage attribution.
	APIClient string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Timeout bounds one attempt. For streams it bounds the wait for response
	// headers only. Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

const (
	// DefaultBaseURL is the default Gemini API base URL.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultAPIVersion is the API version used when none is configured.
	DefaultAPIVersion = "v1beta"

	// DefaultAPIClient identifies this library in x-goog-api-client.
	DefaultAPIClient = "gemkit-go/" + Version
)

// Version is the library version reported to the service.
const Version = "0.4.0"

// Option configures the Gemini provider.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithAPIVersion sets the API version path segment, e.g. "v1".
func WithAPIVersion(v string) Option {
	return func(c *Config) {
		c.APIVersion = v
	}
}

// WithAPIClient sets the x-goog-api-client attribution header.
func WithAPIClient(v string) Option {
	return func(c *Config) {
		c.APIClient = v
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}
