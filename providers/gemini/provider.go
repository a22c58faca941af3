package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/petal-labs/gemkit/core"
)

const providerID = "gemini"

// Gemini is a core.Provider for the Google Gemini API.
// Gemini is safe for concurrent use.
type Gemini struct {
	config Config
	clock  func() time.Time
}

// New creates a new Gemini provider with the given API key and options.
// An empty key is reported as KindAuthFailure on the first call, before any I/O.
func New(apiKey string, opts ...Option) *Gemini {
	cfg := Config{
		APIKey:     core.NewSecret(apiKey),
		BaseURL:    DefaultBaseURL,
		APIClient:  DefaultAPIClient,
		HTTPClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.Headers = cfg.Headers.Clone()

	return &Gemini{config: cfg}
}

// ID returns the provider identifier.
func (p *Gemini) ID() string {
	return providerID
}

// Prepare encodes req and resolves its endpoint. It performs no I/O.
func (p *Gemini) Prepare(req *core.GenerationRequest, streaming bool) (*core.Call, error) {
	task, query := taskGenerate, url.Values(nil)
	if streaming {
		task, query = taskStream, url.Values{"alt": {"sse"}}
	}
	ep, err := p.resolve(http.MethodPost, modelResource(req.Model), task, query)
	if err != nil {
		return nil, err
	}
	if streaming {
		ep.header.Set("Accept", "text/event-stream")
	}

	body, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, &core.APIError{
			Kind:     core.KindInvalidRequest,
			Provider: providerID,
			Field:    "request",
			Reason:   err.Error(),
			Err:      err,
		}
	}

	return &core.Call{
		Model:     req.Model,
		Streaming: streaming,
		Method:    ep.method,
		URL:       ep.url,
		Header:    ep.header,
		Body:      body,
	}, nil
}

// Send performs one generateContent attempt.
func (p *Gemini) Send(ctx context.Context, call *core.Call) (*core.GenerationResponse, error) {
	status, body, err := p.roundTrip(ctx, call)
	if err != nil {
		return nil, err
	}
	return decodeResponse(status, body, call.Model)
}

// OpenStream performs one streamGenerateContent attempt up to the response headers.
func (p *Gemini) OpenStream(ctx context.Context, call *core.Call) (core.ChunkReader, error) {
	resp, cancel, err := p.openStream(ctx, call)
	if err != nil {
		return nil, err
	}
	return newStreamReader(resp.Body, cancel, call.Model), nil
}

var _ core.Provider = (*Gemini)(nil)
