package gemini

import "encoding/json"

// geminiRequest is the body of generateContent, streamGenerateContent and countTokens.
type geminiRequest struct {
	Contents          []geminiContent       `json:"contents"`
	SystemInstruction *geminiContent        `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig      `json:"generationConfig,omitempty"`
	SafetySettings    []geminiSafetySetting `json:"safetySettings,omitempty"`
}

// geminiContent represents a content block (user or model turn).
type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

// geminiPart holds exactly one of its fields.
type geminiPart struct {
	Text       *string           `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
	Thought    bool              `json:"thought,omitempty"`
}

// geminiInlineData carries base64 media bytes.
type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// geminiFileData references an uploaded file.
type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

// geminiGenConfig holds generation configuration.
type geminiGenConfig struct {
	CandidateCount   *int     `json:"candidateCount,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
	MaxOutputTokens  *int     `json:"maxOutputTokens,omitempty"`
	Temperature      *float32 `json:"temperature,omitempty"`
	TopP             *float32 `json:"topP,omitempty"`
	TopK             *int     `json:"topK,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// geminiResponse is a GenerateContentResponse, both whole and per stream record.
// Error is set when the service reports a failure inside a 200 stream.
type geminiResponse struct {
	Error          *geminiError          `json:"error,omitempty"`
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *geminiUsage          `json:"usageMetadata,omitempty"`
	ModelVersion   string                `json:"modelVersion,omitempty"`
}

// geminiCandidate represents a response candidate.
type geminiCandidate struct {
	Index            *int                    `json:"index,omitempty"`
	Content          *geminiContent          `json:"content,omitempty"`
	FinishReason     string                  `json:"finishReason,omitempty"`
	FinishMessage    string                  `json:"finishMessage,omitempty"`
	SafetyRatings    []geminiSafetyRating    `json:"safetyRatings,omitempty"`
	CitationMetadata *geminiCitationMetadata `json:"citationMetadata,omitempty"`
}

type geminiCitationMetadata struct {
	CitationSources []geminiCitationSource `json:"citationSources,omitempty"`
}

type geminiCitationSource struct {
	StartIndex int    `json:"startIndex,omitempty"`
	EndIndex   int    `json:"endIndex,omitempty"`
	URI        string `json:"uri,omitempty"`
	License    string `json:"license,omitempty"`
}

type geminiSafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason   string               `json:"blockReason,omitempty"`
	SafetyRatings []geminiSafetyRating `json:"safetyRatings,omitempty"`
}

// geminiUsage tracks token usage.
type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	ThoughtsTokenCount   int `json:"thoughtsTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// geminiErrorResponse represents an error response from the API.
type geminiErrorResponse struct {
	Error *geminiError `json:"error"`
}

// geminiError is a google.rpc.Status.
type geminiError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Details []json.RawMessage `json:"details,omitempty"`
}

// geminiErrorDetail covers the detail types the classifier reads:
// google.rpc.RetryInfo and google.rpc.BadRequest.
type geminiErrorDetail struct {
	Type            string `json:"@type"`
	RetryDelay      string `json:"retryDelay,omitempty"`
	FieldViolations []struct {
		Field       string `json:"field"`
		Description string `json:"description"`
	} `json:"fieldViolations,omitempty"`
}

// geminiCountTokensResponse is the countTokens result.
type geminiCountTokensResponse struct {
	TotalTokens int `json:"totalTokens"`
}

// geminiModel is one entry of models.list.
type geminiModel struct {
	Name                       string   `json:"name"`
	BaseModelID                string   `json:"baseModelId,omitempty"`
	Version                    string   `json:"version,omitempty"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

type geminiListModelsResponse struct {
	Models        []geminiModel `json:"models"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}
