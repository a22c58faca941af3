// Package config handles CLI configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/gemkit/core"
	"github.com/petal-labs/gemkit/providers/gemini"
)

// DefaultKeyName is the keystore entry consulted when key_name is unset.
const DefaultKeyName = "gemini"

const redacted = "[REDACTED]"

// Config represents the CLI configuration.
type Config struct {
	DefaultModel string            `yaml:"default_model,omitempty"`
	BaseURL      string            `yaml:"base_url,omitempty"`
	APIVersion   string            `yaml:"api_version,omitempty"`
	APIKey       string            `yaml:"api_key,omitempty"`
	KeyName      string            `yaml:"key_name,omitempty"`
	Timeout      time.Duration     `yaml:"timeout,omitempty"`
	Retry        core.RetryConfig  `yaml:"retry,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.gemkit/config.yaml
// - Windows: %USERPROFILE%\.gemkit\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".gemkit", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read, parsed or validated.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path with user-only permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks values that would otherwise fail on the first call.
func (c *Config) Validate() error {
	switch c.APIVersion {
	case "", "v1", "v1beta":
	default:
		return fmt.Errorf("api_version %q: want v1 or v1beta", c.APIVersion)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout %s: must not be negative", c.Timeout)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts %d: must not be negative", c.Retry.MaxAttempts)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return fmt.Errorf("retry.jitter %g: want 0..1", c.Retry.Jitter)
	}
	return nil
}

// KeystoreName returns the keystore entry holding the API key.
func (c *Config) KeystoreName() string {
	if c.KeyName != "" {
		return c.KeyName
	}
	return DefaultKeyName
}

// Redacted returns a copy safe to print: the inline API key is masked.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = redacted
	}
	if c.Headers != nil {
		out.Headers = make(map[string]string, len(c.Headers))
		for k, v := range c.Headers {
			if http.CanonicalHeaderKey(k) == "X-Goog-Api-Key" {
				v = redacted
			}
			out.Headers[k] = v
		}
	}
	return &out
}

// ClientConfig converts the file settings into a gemini.ClientConfig.
func (c *Config) ClientConfig(apiKey string) gemini.ClientConfig {
	cc := gemini.ClientConfig{
		APIKey:       apiKey,
		BaseURL:      c.BaseURL,
		APIVersion:   c.APIVersion,
		DefaultModel: core.ModelID(c.DefaultModel),
		Retry:        c.Retry,
		Timeout:      c.Timeout,
	}
	if len(c.Headers) > 0 {
		cc.Headers = make(http.Header, len(c.Headers))
		for k, v := range c.Headers {
			cc.Headers.Set(k, v)
		}
	}
	return cc
}
