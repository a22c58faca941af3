package core

import "fmt"

// Parameter bounds accepted by the service.
const (
	MaxTemperature    = 2.0
	MaxStopSequences  = 5
	MaxCandidateCount = 8
)

// GenerationConfig holds optional sampling parameters.
// A nil field leaves the service default in place (see DefaultGenerationConfig).
type GenerationConfig struct {
	Temperature      *float32
	TopP             *float32
	TopK             *int
	MaxOutputTokens  *int
	StopSequences    []string
	CandidateCount   *int
	ResponseMIMEType string
}

// DefaultGenerationConfig returns the values the service applies when a field is unset.
// Model cards may override them; MaxOutputTokens has no fixed default.
func DefaultGenerationConfig() GenerationConfig {
	temp := float32(1.0)
	topP := float32(0.95)
	topK := 40
	count := 1
	return GenerationConfig{
		Temperature:    &temp,
		TopP:           &topP,
		TopK:           &topK,
		CandidateCount: &count,
	}
}

// Validate checks every set field against the documented ranges.
func (c *GenerationConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.Temperature != nil && !(*c.Temperature >= 0 && *c.Temperature <= MaxTemperature) {
		return invalidField("generationConfig.temperature", fmt.Sprintf("must be between 0 and %.1f, got %g", MaxTemperature, *c.Temperature))
	}
	if c.TopP != nil && !(*c.TopP >= 0 && *c.TopP <= 1) {
		return invalidField("generationConfig.topP", fmt.Sprintf("must be between 0 and 1, got %g", *c.TopP))
	}
	if c.TopK != nil && *c.TopK < 1 {
		return invalidField("generationConfig.topK", fmt.Sprintf("must be at least 1, got %d", *c.TopK))
	}
	if c.MaxOutputTokens != nil && *c.MaxOutputTokens < 1 {
		return invalidField("generationConfig.maxOutputTokens", fmt.Sprintf("must be at least 1, got %d", *c.MaxOutputTokens))
	}
	if c.CandidateCount != nil && (*c.CandidateCount < 1 || *c.CandidateCount > MaxCandidateCount) {
		return invalidField("generationConfig.candidateCount", fmt.Sprintf("must be between 1 and %d, got %d", MaxCandidateCount, *c.CandidateCount))
	}
	if len(c.StopSequences) > MaxStopSequences {
		return invalidField("generationConfig.stopSequences", fmt.Sprintf("at most %d allowed, got %d", MaxStopSequences, len(c.StopSequences)))
	}
	for i, s := range c.StopSequences {
		if s == "" {
			return invalidField(fmt.Sprintf("generationConfig.stopSequences[%d]", i), "must not be empty")
		}
	}
	switch c.ResponseMIMEType {
	case "", "text/plain", "application/json":
	default:
		return invalidField("generationConfig.responseMimeType", fmt.Sprintf("unsupported type %q", c.ResponseMIMEType))
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *GenerationConfig) Clone() *GenerationConfig {
	if c == nil {
		return nil
	}
	out := &GenerationConfig{
		Temperature:      clonePtr(c.Temperature),
		TopP:             clonePtr(c.TopP),
		TopK:             clonePtr(c.TopK),
		MaxOutputTokens:  clonePtr(c.MaxOutputTokens),
		CandidateCount:   clonePtr(c.CandidateCount),
		ResponseMIMEType: c.ResponseMIMEType,
	}
	if c.StopSequences != nil {
		out.StopSequences = append([]string(nil), c.StopSequences...)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// GenerationRequest is a fully specified generation call.
// Build one with RequestBuilder, or fill the struct and call Validate.
type GenerationRequest struct {
	Model             ModelID
	Contents          []Content
	SystemInstruction *Content
	Config            *GenerationConfig
	SafetySettings    []SafetySetting
}

// Validate checks the request without touching the network.
func (r *GenerationRequest) Validate() error {
	if r == nil {
		return invalidField("request", "is nil")
	}
	if r.Model == "" {
		return &APIError{Kind: KindInvalidRequest, Field: "model", Reason: ErrModelRequired.Error(), Err: ErrModelRequired}
	}
	if len(r.Contents) == 0 {
		return &APIError{Kind: KindInvalidRequest, Field: "contents", Reason: ErrNoContents.Error(), Err: ErrNoContents}
	}
	conversation := 0
	for i, c := range r.Contents {
		if err := validateContent(fmt.Sprintf("contents[%d]", i), c); err != nil {
			return err
		}
		if c.Role != RoleSystem {
			conversation++
		}
	}
	// System turns are sent as systemInstruction, which cannot stand alone.
	if conversation == 0 {
		return &APIError{Kind: KindInvalidRequest, Field: "contents", Reason: "needs at least one user or model turn", Err: ErrNoContents}
	}
	if r.SystemInstruction != nil {
		if err := validateContent("systemInstruction", *r.SystemInstruction); err != nil {
			return err
		}
	}
	for i, s := range r.SafetySettings {
		if s.Category == "" || s.Threshold == "" {
			return invalidField(fmt.Sprintf("safetySettings[%d]", i), "category and threshold are required")
		}
	}
	return r.Config.Validate()
}

func validateContent(field string, c Content) error {
	if !c.Role.Valid() {
		return invalidField(field+".role", fmt.Sprintf("unknown role %q", c.Role))
	}
	if len(c.Parts) == 0 {
		return invalidField(field+".parts", "must not be empty")
	}
	for i, p := range c.Parts {
		name := fmt.Sprintf("%s.parts[%d]", field, i)
		switch v := p.(type) {
		case Text:
		case InlineData:
			if v.MIMEType == "" {
				return invalidField(name+".mimeType", "is required")
			}
			if len(v.Data) == 0 {
				return invalidField(name+".data", "must not be empty")
			}
		case FileData:
			if v.URI == "" {
				return invalidField(name+".fileUri", "is required")
			}
		case nil:
			return invalidField(name, "is nil")
		}
	}
	return nil
}

// Clone returns a deep copy of r.
func (r *GenerationRequest) Clone() *GenerationRequest {
	if r == nil {
		return nil
	}
	out := &GenerationRequest{
		Model:  r.Model,
		Config: r.Config.Clone(),
	}
	if r.Contents != nil {
		out.Contents = make([]Content, len(r.Contents))
		for i, c := range r.Contents {
			out.Contents[i] = c.Clone()
		}
	}
	if r.SystemInstruction != nil {
		si := r.SystemInstruction.Clone()
		out.SystemInstruction = &si
	}
	if r.SafetySettings != nil {
		out.SafetySettings = append([]SafetySetting(nil), r.SafetySettings...)
	}
	return out
}
