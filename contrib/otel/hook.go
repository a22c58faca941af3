// Package otel traces gemkit calls with OpenTelemetry.
//
// Install the hook on a client:
//
//	client := gemini.NewClient(cfg, core.WithTelemetry(otel.NewHook()))
//
// Each call becomes one client span named "gemini generate" or
// "gemini stream", started and ended at the times reported by the client.
// Retries are recorded as span events. Spans carry metadata only: model,
// request id, attempts, token usage and the error kind.
package otel

import (
	"context"
	"sync"

	global "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/gemkit/core"
)

// ScopeName is the instrumentation scope used for the tracer.
const ScopeName = "github.com/petal-labs/gemkit/contrib/otel"

// Attribute keys.
const (
	AttrSystem          = attribute.Key("gen_ai.system")
	AttrRequestModel    = attribute.Key("gen_ai.request.model")
	AttrInputTokens     = attribute.Key("gen_ai.usage.input_tokens")
	AttrOutputTokens    = attribute.Key("gen_ai.usage.output_tokens")
	AttrErrorType       = attribute.Key("error.type")
	AttrRequestID       = attribute.Key("gemkit.request_id")
	AttrStreaming       = attribute.Key("gemkit.streaming")
	AttrAttempts        = attribute.Key("gemkit.attempts")
	AttrChunks          = attribute.Key("gemkit.stream.chunks")
	AttrTrailingRecords = attribute.Key("gemkit.stream.trailing_records")
	AttrRetryAttempt    = attribute.Key("gemkit.retry.attempt")
	AttrRetryDelay      = attribute.Key("gemkit.retry.delay_ms")
	AttrHTTPStatus      = attribute.Key("http.response.status_code")
)

// Option configures a Hook.
type Option func(*Hook)

// WithTracerProvider sets the provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Hook) {
		if tp != nil {
			h.tracer = tp.Tracer(ScopeName)
		}
	}
}

// Hook implements core.TelemetryHook by emitting spans.
// It is safe for concurrent calls; open spans are tracked by request id.
type Hook struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewHook returns a tracing hook.
func NewHook(opts ...Option) *Hook {
	h := &Hook{spans: make(map[string]trace.Span)}
	for _, opt := range opts {
		opt(h)
	}
	if h.tracer == nil {
		h.tracer = global.Tracer(ScopeName)
	}
	return h
}

// OnRequestStart opens the call span.
func (h *Hook) OnRequestStart(e core.RequestStartEvent) {
	name := e.Provider + " generate"
	if e.Streaming {
		name = e.Provider + " stream"
	}

	_, span := h.tracer.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			AttrSystem.String(e.Provider),
			AttrRequestModel.String(string(e.Model)),
			AttrRequestID.String(e.RequestID),
			AttrStreaming.Bool(e.Streaming),
		),
	)

	h.mu.Lock()
	h.spans[e.RequestID] = span
	h.mu.Unlock()
}

// OnRetry records a failed attempt as a span event.
func (h *Hook) OnRetry(e core.RetryEvent) {
	span := h.lookup(e.RequestID, false)
	if span == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrRetryAttempt.Int(e.Attempt),
		AttrRetryDelay.Int64(e.Delay.Milliseconds()),
		AttrErrorType.String(e.Kind.String()),
	}
	if e.Status != 0 {
		attrs = append(attrs, AttrHTTPStatus.Int(e.Status))
	}
	span.AddEvent("retry", trace.WithAttributes(attrs...))
}

// OnRequestEnd closes the call span.
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	span := h.lookup(e.RequestID, true)
	if span == nil {
		return
	}

	span.SetAttributes(
		AttrAttempts.Int(e.Attempts),
		AttrInputTokens.Int(e.Usage.PromptTokens),
		AttrOutputTokens.Int(e.Usage.CompletionTokens),
	)
	if e.Streaming {
		span.SetAttributes(
			AttrChunks.Int(e.Chunks),
			AttrTrailingRecords.Int(e.TrailingRecords),
		)
	}

	if e.Err != nil {
		kind := core.KindOf(e.Err)
		if kind != 0 {
			span.SetAttributes(AttrErrorType.String(kind.String()))
		} else {
			span.SetAttributes(AttrErrorType.String("_OTHER"))
		}
		span.RecordError(e.Err, trace.WithTimestamp(e.End))
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End(trace.WithTimestamp(e.End))
}

func (h *Hook) lookup(id string, remove bool) trace.Span {
	h.mu.Lock()
	defer h.mu.Unlock()
	span, ok := h.spans[id]
	if !ok {
		return nil
	}
	if remove {
		delete(h.spans, id)
	}
	return span
}

var _ core.TelemetryHook = (*Hook)(nil)
