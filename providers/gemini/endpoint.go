package gemini

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/petal-labs/gemkit/core"
)

// API methods addressed as {resource}:{task}.
const (
	taskGenerate    = "generateContent"
	taskStream      = "streamGenerateContent"
	taskCountTokens = "countTokens"
)

// endpoint is a resolved target: where to send and with which headers.
type endpoint struct {
	method string
	url    string
	header http.Header
}

// modelResource returns the resource name for a model id. Bare ids get
// the "models/" prefix; names with a collection ("tunedModels/x") are kept.
func modelResource(model core.ModelID) string {
	m := string(model)
	if strings.Contains(m, "/") {
		return m
	}
	return "models/" + m
}

// resolve builds the URL and headers for one API method.
// It performs no I/O and fails only when the credential is missing.
func (p *Gemini) resolve(method, resource, task string, query url.Values) (*endpoint, error) {
	if p.config.APIKey.IsEmpty() {
		return nil, &core.APIError{
			Kind:     core.KindAuthFailure,
			Provider: providerID,
			Message:  "API key is not configured: set GEMINI_API_KEY or pass one to gemini.New",
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(p.config.BaseURL, "/"))
	sb.WriteByte('/')
	sb.WriteString(p.apiVersion())
	for _, seg := range strings.Split(resource, "/") {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(seg))
	}
	if task != "" {
		sb.WriteByte(':')
		sb.WriteString(task)
	}
	if len(query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(query.Encode())
	}

	return &endpoint{
		method: method,
		url:    sb.String(),
		header: p.buildHeaders(),
	}, nil
}

func (p *Gemini) apiVersion() string {
	if p.config.APIVersion == "" {
		return DefaultAPIVersion
	}
	return p.config.APIVersion
}

// buildHeaders constructs the HTTP headers for an API request.
func (p *Gemini) buildHeaders() http.Header {
	headers := make(http.Header)

	headers.Set("x-goog-api-key", p.config.APIKey.Expose())
	headers.Set("Content-Type", "application/json")
	if p.config.APIClient != "" {
		headers.Set("x-goog-api-client", p.config.APIClient)
	}

	for key, values := range p.config.Headers {
		for _, v := range values {
			headers.Add(key, v)
		}
	}

	return headers
}
