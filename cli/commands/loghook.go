package commands

import (
	"log/slog"

	"github.com/petal-labs/gemkit/core"
)

// logHook writes call telemetry as structured log records.
// It logs metadata only, never prompts or outputs.
type logHook struct {
	log *slog.Logger
}

func newLogHook(l *slog.Logger) *logHook {
	return &logHook{log: l}
}

func (h *logHook) OnRequestStart(e core.RequestStartEvent) {
	h.log.Debug("request start",
		"provider", e.Provider,
		"model", e.Model,
		"request_id", e.RequestID,
		"streaming", e.Streaming,
	)
}

func (h *logHook) OnRetry(e core.RetryEvent) {
	h.log.Warn("retrying",
		"request_id", e.RequestID,
		"attempt", e.Attempt,
		"kind", e.Kind.String(),
		"status", e.Status,
		"delay", e.Delay,
	)
}

func (h *logHook) OnRequestEnd(e core.RequestEndEvent) {
	attrs := []any{
		"request_id", e.RequestID,
		"model", e.Model,
		"attempts", e.Attempts,
		"duration", e.Duration(),
		"prompt_tokens", e.Usage.PromptTokens,
		"completion_tokens", e.Usage.CompletionTokens,
	}
	if e.Streaming {
		attrs = append(attrs, "chunks", e.Chunks, "trailing_records", e.TrailingRecords)
	}
	if e.Err != nil {
		h.log.Error("request failed", append(attrs, "kind", core.KindOf(e.Err).String(), "error", e.Err)...)
		return
	}
	h.log.Info("request done", attrs...)
}

var _ core.TelemetryHook = (*logHook)(nil)
