package core

import (
	"fmt"
	"strings"
)

// ModelID is a string identifier for a model.
// Bare ids ("gemini-2.5-flash") and resource names ("tunedModels/my-model") are both accepted.
type ModelID string

// Role represents a content author.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModel, RoleSystem:
		return true
	default:
		return false
	}
}

// Content is one turn of a conversation: a role and its ordered parts.
type Content struct {
	Role  Role
	Parts []Part
}

// Text returns the concatenation of all text parts.
func (c Content) Text() string {
	var sb strings.Builder
	for _, p := range c.Parts {
		if t, ok := p.(Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// Clone returns a deep copy of c.
func (c Content) Clone() Content {
	out := Content{Role: c.Role}
	if c.Parts != nil {
		out.Parts = make([]Part, len(c.Parts))
		for i, p := range c.Parts {
			out.Parts[i] = clonePart(p)
		}
	}
	return out
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FinishReason explains why a candidate stopped generating.
type FinishReason int

const (
	// FinishReasonUnspecified means the candidate has not finished yet.
	FinishReasonUnspecified FinishReason = iota
	// FinishReasonStop is a natural stop or a matched stop sequence.
	FinishReasonStop
	// FinishReasonMaxTokens means the output length limit was reached.
	FinishReasonMaxTokens
	// FinishReasonSafety means content was withheld by the safety system.
	FinishReasonSafety
	// FinishReasonOther covers every other reported reason.
	FinishReasonOther
)

// String returns the reason name.
func (r FinishReason) String() string {
	switch r {
	case FinishReasonUnspecified:
		return "unspecified"
	case FinishReasonStop:
		return "stop"
	case FinishReasonMaxTokens:
		return "max_tokens"
	case FinishReasonSafety:
		return "safety"
	case FinishReasonOther:
		return "other"
	default:
		return fmt.Sprintf("FinishReason(%d)", int(r))
	}
}

// Finished reports whether r marks the end of a candidate.
func (r FinishReason) Finished() bool {
	return r != FinishReasonUnspecified
}

// SafetyRating is the service's assessment of one harm category.
// Values are passed through as reported.
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

// SafetySetting is an opaque per-category blocking threshold sent with a request.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// PromptFeedback reports whether the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason   string         `json:"block_reason,omitempty"`
	SafetyRatings []SafetyRating `json:"safety_ratings,omitempty"`
}

// Blocked reports whether the prompt was rejected.
func (f *PromptFeedback) Blocked() bool {
	return f != nil && f.BlockReason != "" && f.BlockReason != "BLOCK_REASON_UNSPECIFIED"
}

// Citation attributes a byte range of a candidate's text to a source.
// EndIndex is exclusive.
type Citation struct {
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	URI        string `json:"uri,omitempty"`
	License    string `json:"license,omitempty"`
}

// Candidate is one generated alternative.
type Candidate struct {
	Index         int
	Content       Content
	FinishReason  FinishReason
	FinishMessage string
	SafetyRatings []SafetyRating
	Citations     []Citation
}

// GenerationResponse is the decoded result of a non-streaming call,
// or the concatenation of a stream.
type GenerationResponse struct {
	Candidates     []Candidate
	PromptFeedback *PromptFeedback
	Usage          TokenUsage
	Model          ModelID
	RequestID      string
}

// Text returns the text of the first candidate.
func (r *GenerationResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Text()
}

// ModelInfo describes a model reported by the service.
type ModelInfo struct {
	ID               ModelID  `json:"id"`
	DisplayName      string   `json:"display_name"`
	Description      string   `json:"description,omitempty"`
	InputTokenLimit  int      `json:"input_token_limit,omitempty"`
	OutputTokenLimit int      `json:"output_token_limit,omitempty"`
	Methods          []string `json:"methods,omitempty"`
}

// Supports reports whether the model accepts the given generation method.
func (m ModelInfo) Supports(method string) bool {
	for _, v := range m.Methods {
		if v == method {
			return true
		}
	}
	return false
}
