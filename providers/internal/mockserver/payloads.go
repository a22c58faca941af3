package mockserver

import (
	"encoding/json"
	"fmt"
)

// TextResponse is a one-candidate generateContent body.
func TextResponse(text, finishReason string) string {
	return mustJSON(map[string]any{
		"candidates": []any{candidate(0, text, finishReason)},
		"usageMetadata": map[string]any{
			"promptTokenCount":     3,
			"candidatesTokenCount": 5,
			"totalTokenCount":      8,
		},
		"modelVersion": "gemini-2.5-flash",
	})
}

// TextChunk is one stream record carrying a text delta. An empty
// finishReason leaves the candidate open.
func TextChunk(text, finishReason string) string {
	return mustJSON(map[string]any{
		"candidates": []any{candidate(0, text, finishReason)},
	})
}

// TextChunks splits text into stream records of the given pieces, the last one finished with STOP.
func TextChunks(pieces ...string) []string {
	out := make([]string, len(pieces))
	for i, p := range pieces {
		reason := ""
		if i == len(pieces)-1 {
			reason = "STOP"
		}
		out[i] = TextChunk(p, reason)
	}
	return out
}

// BlockedPrompt is a candidate-less body whose prompt was refused.
func BlockedPrompt(reason string) string {
	return mustJSON(map[string]any{
		"promptFeedback": map[string]any{
			"blockReason": reason,
			"safetyRatings": []any{
				map[string]any{"category": "HARM_CATEGORY_HARASSMENT", "probability": "HIGH"},
			},
		},
	})
}

// ErrorBody is a google.rpc.Status error body with optional details.
func ErrorBody(code int, status, message string, details ...map[string]any) string {
	e := map[string]any{"code": code, "message": message, "status": status}
	if len(details) > 0 {
		e["details"] = details
	}
	return mustJSON(map[string]any{"error": e})
}

// RetryInfo is a google.rpc.RetryInfo error detail.
func RetryInfo(delay string) map[string]any {
	return map[string]any{
		"@type":      "type.googleapis.com/google.rpc.RetryInfo",
		"retryDelay": delay,
	}
}

// BadRequest is a google.rpc.BadRequest error detail with one violation.
func BadRequest(field, description string) map[string]any {
	return map[string]any{
		"@type": "type.googleapis.com/google.rpc.BadRequest",
		"fieldViolations": []any{
			map[string]any{"field": field, "description": description},
		},
	}
}

func candidate(index int, text, finishReason string) map[string]any {
	c := map[string]any{
		"index": index,
		"content": map[string]any{
			"role":  "model",
			"parts": []any{map[string]any{"text": text}},
		},
	}
	if finishReason != "" {
		c["finishReason"] = finishReason
	}
	return c
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mockserver: %v", err))
	}
	return string(b)
}
