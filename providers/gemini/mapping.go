package gemini

import (
	"github.com/petal-labs/gemkit/core"
)

// buildRequest converts a validated request to the wire shape.
// RoleSystem turns are folded into systemInstruction, after SystemInstruction itself.
func buildRequest(req *core.GenerationRequest) *geminiRequest {
	gr := &geminiRequest{
		Contents: make([]geminiContent, 0, len(req.Contents)),
	}

	var system []geminiPart
	if req.SystemInstruction != nil {
		system = append(system, mapParts(req.SystemInstruction.Parts)...)
	}
	for _, c := range req.Contents {
		if c.Role == core.RoleSystem {
			system = append(system, mapParts(c.Parts)...)
			continue
		}
		gr.Contents = append(gr.Contents, geminiContent{
			Role:  string(c.Role),
			Parts: mapParts(c.Parts),
		})
	}
	if len(system) > 0 {
		gr.SystemInstruction = &geminiContent{Parts: system}
	}

	if cfg := req.Config; cfg != nil {
		gr.GenerationConfig = &geminiGenConfig{
			CandidateCount:   cfg.CandidateCount,
			StopSequences:    cfg.StopSequences,
			MaxOutputTokens:  cfg.MaxOutputTokens,
			Temperature:      cfg.Temperature,
			TopP:             cfg.TopP,
			TopK:             cfg.TopK,
			ResponseMimeType: cfg.ResponseMIMEType,
		}
	}

	for _, s := range req.SafetySettings {
		gr.SafetySettings = append(gr.SafetySettings, geminiSafetySetting{
			Category:  s.Category,
			Threshold: s.Threshold,
		})
	}

	return gr
}

func mapParts(parts []core.Part) []geminiPart {
	out := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case core.Text:
			s := string(v)
			out = append(out, geminiPart{Text: &s})
		case core.InlineData:
			out = append(out, geminiPart{InlineData: &geminiInlineData{MimeType: v.MIMEType, Data: v.Data}})
		case core.FileData:
			out = append(out, geminiPart{FileData: &geminiFileData{MimeType: v.MIMEType, FileURI: v.URI}})
		}
	}
	return out
}

// mapResponse converts a wire response with at least one candidate.
func mapResponse(gr *geminiResponse, model core.ModelID) *core.GenerationResponse {
	resp := &core.GenerationResponse{
		Candidates:     mapCandidates(gr.Candidates),
		PromptFeedback: mapPromptFeedback(gr.PromptFeedback),
		Model:          model,
	}
	if u := mapUsage(gr.UsageMetadata); u != nil {
		resp.Usage = *u
	}
	if gr.ModelVersion != "" {
		resp.Model = core.ModelID(gr.ModelVersion)
	}
	return resp
}

func mapCandidates(in []geminiCandidate) []core.Candidate {
	out := make([]core.Candidate, 0, len(in))
	for i, gc := range in {
		c := core.Candidate{
			Index:         i,
			FinishReason:  mapFinishReason(gc.FinishReason),
			FinishMessage: gc.FinishMessage,
			SafetyRatings: mapSafetyRatings(gc.SafetyRatings),
			Citations:     mapCitations(gc.CitationMetadata),
			Content:       core.Content{Role: core.RoleModel},
		}
		if gc.Index != nil {
			c.Index = *gc.Index
		}
		if gc.Content != nil {
			if gc.Content.Role != "" {
				c.Content.Role = core.Role(gc.Content.Role)
			}
			c.Content.Parts = mapWireParts(gc.Content.Parts)
		}
		out = append(out, c)
	}
	return out
}

// mapWireParts converts response parts. Thought summaries are not output and are skipped.
func mapWireParts(in []geminiPart) []core.Part {
	var out []core.Part
	for _, p := range in {
		switch {
		case p.Thought:
		case p.Text != nil:
			out = append(out, core.Text(*p.Text))
		case p.InlineData != nil:
			out = append(out, core.InlineData{MIMEType: p.InlineData.MimeType, Data: p.InlineData.Data})
		case p.FileData != nil:
			out = append(out, core.FileData{MIMEType: p.FileData.MimeType, URI: p.FileData.FileURI})
		}
	}
	return out
}

// mapFinishReason folds the service's reasons into the closed set.
// Reasons that withhold content for policy reasons count as safety.
func mapFinishReason(s string) core.FinishReason {
	switch s {
	case "", "FINISH_REASON_UNSPECIFIED":
		return core.FinishReasonUnspecified
	case "STOP":
		return core.FinishReasonStop
	case "MAX_TOKENS":
		return core.FinishReasonMaxTokens
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "IMAGE_SAFETY":
		return core.FinishReasonSafety
	default:
		return core.FinishReasonOther
	}
}

func mapCitations(m *geminiCitationMetadata) []core.Citation {
	if m == nil || len(m.CitationSources) == 0 {
		return nil
	}
	out := make([]core.Citation, len(m.CitationSources))
	for i, s := range m.CitationSources {
		out[i] = core.Citation{StartIndex: s.StartIndex, EndIndex: s.EndIndex, URI: s.URI, License: s.License}
	}
	return out
}

func mapSafetyRatings(in []geminiSafetyRating) []core.SafetyRating {
	if len(in) == 0 {
		return nil
	}
	out := make([]core.SafetyRating, len(in))
	for i, r := range in {
		out[i] = core.SafetyRating{Category: r.Category, Probability: r.Probability, Blocked: r.Blocked}
	}
	return out
}

func mapPromptFeedback(in *geminiPromptFeedback) *core.PromptFeedback {
	if in == nil {
		return nil
	}
	return &core.PromptFeedback{
		BlockReason:   in.BlockReason,
		SafetyRatings: mapSafetyRatings(in.SafetyRatings),
	}
}

func mapUsage(in *geminiUsage) *core.TokenUsage {
	if in == nil {
		return nil
	}
	total := in.TotalTokenCount
	if total == 0 {
		total = in.PromptTokenCount + in.CandidatesTokenCount + in.ThoughtsTokenCount
	}
	return &core.TokenUsage{
		PromptTokens:     in.PromptTokenCount,
		CompletionTokens: in.CandidatesTokenCount,
		TotalTokens:      total,
	}
}
