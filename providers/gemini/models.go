package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/petal-labs/gemkit/core"
)

// Model constants for Google Gemini models.
const (
	// Gemini 3 series (preview)
	ModelGemini3Pro   core.ModelID = "gemini-3-pro-preview"
	ModelGemini3Flash core.ModelID = "gemini-3-flash-preview"

	// Gemini 2.5 series
	ModelGemini25Flash     core.ModelID = "gemini-2.5-flash"
	ModelGemini25FlashLite core.ModelID = "gemini-2.5-flash-lite"
	ModelGemini25Pro       core.ModelID = "gemini-2.5-pro"

	// Gemini 2.0 series
	ModelGemini20Flash core.ModelID = "gemini-2.0-flash"
)

// DefaultModel is used when neither the request nor the client names one.
const DefaultModel = ModelGemini25Flash

// Generation methods reported in ModelInfo.Methods.
const (
	MethodGenerateContent = taskGenerate
	MethodStreamGenerate  = taskStream
	MethodCountTokens     = taskCountTokens
)

// listPageSize is the page size requested from models.list.
const listPageSize = 100

// ListModels returns every model visible to the API key, following pagination.
// It performs a single attempt per page.
func (p *Gemini) ListModels(ctx context.Context) ([]core.ModelInfo, error) {
	var (
		out   []core.ModelInfo
		token string
	)
	for {
		query := url.Values{"pageSize": {strconv.Itoa(listPageSize)}}
		if token != "" {
			query.Set("pageToken", token)
		}
		ep, err := p.resolve(http.MethodGet, "models", "", query)
		if err != nil {
			return nil, err
		}
		ep.header.Del("Content-Type")

		status, body, err := p.roundTrip(ctx, &core.Call{Method: ep.method, URL: ep.url, Header: ep.header})
		if err != nil {
			return nil, err
		}

		var page geminiListModelsResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, newDecodeError(status, body, err)
		}
		for _, m := range page.Models {
			out = append(out, mapModel(m))
		}

		if page.NextPageToken == "" || page.NextPageToken == token {
			return out, nil
		}
		token = page.NextPageToken
	}
}

func mapModel(m geminiModel) core.ModelInfo {
	return core.ModelInfo{
		ID:               core.ModelID(strings.TrimPrefix(m.Name, "models/")),
		DisplayName:      m.DisplayName,
		Description:      m.Description,
		InputTokenLimit:  m.InputTokenLimit,
		OutputTokenLimit: m.OutputTokenLimit,
		Methods:          m.SupportedGenerationMethods,
	}
}
