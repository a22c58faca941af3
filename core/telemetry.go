package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics or tracing.
//
// # Security Considerations
//
// Events carry operational metadata only. They never include:
//   - API keys (held separately as core.Secret)
//   - Prompt content
//   - Generated content
//   - Request or response headers
//
// Keep it that way when adding fields.
type TelemetryHook interface {
	// OnRequestStart is called once per call, before the first attempt.
	OnRequestStart(e RequestStartEvent)

	// OnRetry is called after a failed attempt, before sleeping.
	OnRetry(e RetryEvent)

	// OnRequestEnd is called once per call, after the last attempt
	// or, for streams, when the sequence ends.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	Provider  string    // Provider identifier (e.g., "gemini")
	Model     ModelID   // Model being called
	RequestID string    // Client-generated call identifier
	Streaming bool      // True for GenerateStream
	Start     time.Time // When the call started
}

// RetryEvent describes one failed attempt that will be retried.
type RetryEvent struct {
	Provider  string
	Model     ModelID
	RequestID string
	Attempt   int           // 1-based number of the attempt that failed
	Delay     time.Duration // Sleep before the next attempt
	Kind      ErrorKind     // Classification of the failure
	Status    int           // HTTP status, 0 for transport faults
}

// RequestEndEvent contains metadata about a completed request.
//
// Err is the classified error value; providers never copy response
// bodies into it beyond APIError.Fragment.
type RequestEndEvent struct {
	Provider        string
	Model           ModelID
	RequestID       string
	Streaming       bool
	Start           time.Time
	End             time.Time
	Attempts        int        // Attempts made, including the successful one
	Chunks          int        // Stream chunks delivered to the caller
	TrailingRecords int        // Records received after the terminal chunk and ignored
	Usage           TokenUsage // Token consumption when reported
	Err             error      // Error if the call failed, nil on success or early abandonment
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRetry does nothing.
func (NoopTelemetryHook) OnRetry(RetryEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
