package gemini

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/petal-labs/gemkit/core"
)

// CountTokens reports how many input tokens req would consume.
// The request is validated and encoded exactly as for generation.
func (p *Gemini) CountTokens(ctx context.Context, req *core.GenerationRequest) (int, error) {
	if req == nil {
		return 0, core.InvalidRequestError("request", "is nil")
	}
	if err := req.Validate(); err != nil {
		return 0, err
	}

	ep, err := p.resolve(http.MethodPost, modelResource(req.Model), taskCountTokens, nil)
	if err != nil {
		return 0, err
	}

	// countTokens takes the contents and system instruction only.
	gr := buildRequest(req)
	body, err := json.Marshal(geminiRequest{
		Contents:          gr.Contents,
		SystemInstruction: gr.SystemInstruction,
	})
	if err != nil {
		return 0, core.InvalidRequestError("request", err.Error())
	}

	status, respBody, err := p.roundTrip(ctx, &core.Call{
		Model:  req.Model,
		Method: ep.method,
		URL:    ep.url,
		Header: ep.header,
		Body:   body,
	})
	if err != nil {
		return 0, err
	}

	var out geminiCountTokensResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, newDecodeError(status, respBody, err)
	}
	return out.TotalTokens, nil
}
