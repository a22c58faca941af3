package core

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy determines retry behavior for failed requests.
type RetryPolicy interface {
	// NextDelay returns the delay before the next attempt and whether to retry.
	// If ok is false, the last error is surfaced to the caller.
	// attempt starts at 0 for the first retry after the initial failure.
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"` // Total attempts including the first (default: 4)
	BaseDelay   time.Duration `yaml:"base_delay"`   // Delay before the second attempt (default: 1s)
	MaxDelay    time.Duration `yaml:"max_delay"`    // Maximum delay cap (default: 30s)
	Jitter      float64       `yaml:"jitter"`       // Jitter factor 0.0-1.0 (default: 0)
}

// DefaultRetryConfig returns the configuration used by DefaultRetryPolicy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// DefaultRetryPolicy returns a retry policy with sensible defaults.
// Uses exponential backoff without jitter, 4 attempts, 30s max delay.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(DefaultRetryConfig())
}

// NewRetryPolicy creates a retry policy with the given configuration.
// MaxAttempts of 1 disables retries.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0
	}
	return &exponentialBackoff{cfg: cfg}
}

type exponentialBackoff struct {
	cfg RetryConfig
}

func (e *exponentialBackoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt+1 >= e.cfg.MaxAttempts {
		return 0, false
	}
	if !isRetryable(err) {
		return 0, false
	}

	// A rate-limit hint from the service replaces the computed delay.
	var ae *APIError
	if errors.As(err, &ae) && ae.Kind == KindRateLimited && ae.RetryAfter > 0 {
		return min(ae.RetryAfter, e.cfg.MaxDelay), true
	}

	// baseDelay * 2^attempt
	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))

	if e.cfg.Jitter > 0 {
		jitterRange := delay * e.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay), true
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Caller cancellation is never retried.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind.Retryable()
	}

	for _, sentinel := range []error{ErrNetwork, ErrTimeout, ErrServer, ErrRateLimited} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
