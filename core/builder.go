package core

import (
	"context"
	"iter"
)

// Request returns a RequestBuilder for the given model.
// An empty model falls back to the client's default model.
func (c *Client) Request(model ModelID) *RequestBuilder {
	return &RequestBuilder{
		client: c,
		req:    GenerationRequest{Model: model},
	}
}

// RequestBuilder provides a fluent API for building generation requests.
// RequestBuilder is NOT thread-safe and should not be shared across goroutines.
type RequestBuilder struct {
	client *Client
	req    GenerationRequest
}

// System sets the system instruction.
func (b *RequestBuilder) System(s string) *RequestBuilder {
	b.req.SystemInstruction = &Content{Role: RoleSystem, Parts: []Part{Text(s)}}
	return b
}

// User appends a user turn with a single text part.
func (b *RequestBuilder) User(s string) *RequestBuilder {
	b.req.Contents = append(b.req.Contents, UserText(s))
	return b
}

// Model appends a model turn, for replaying conversation history.
func (b *RequestBuilder) Model(s string) *RequestBuilder {
	b.req.Contents = append(b.req.Contents, ModelText(s))
	return b
}

// Parts appends a turn with arbitrary parts.
func (b *RequestBuilder) Parts(role Role, parts ...Part) *RequestBuilder {
	b.req.Contents = append(b.req.Contents, Content{Role: role, Parts: parts})
	return b
}

// Temperature sets the sampling temperature.
func (b *RequestBuilder) Temperature(v float32) *RequestBuilder {
	b.config().Temperature = &v
	return b
}

// TopP sets nucleus sampling.
func (b *RequestBuilder) TopP(v float32) *RequestBuilder {
	b.config().TopP = &v
	return b
}

// TopK sets top-k sampling.
func (b *RequestBuilder) TopK(n int) *RequestBuilder {
	b.config().TopK = &n
	return b
}

// MaxOutputTokens sets the output length limit.
func (b *RequestBuilder) MaxOutputTokens(n int) *RequestBuilder {
	b.config().MaxOutputTokens = &n
	return b
}

// Stop sets the stop sequences.
func (b *RequestBuilder) Stop(seqs ...string) *RequestBuilder {
	b.config().StopSequences = seqs
	return b
}

// CandidateCount sets how many candidates to generate.
func (b *RequestBuilder) CandidateCount(n int) *RequestBuilder {
	b.config().CandidateCount = &n
	return b
}

// JSON asks the model to answer with a JSON document.
func (b *RequestBuilder) JSON() *RequestBuilder {
	b.config().ResponseMIMEType = "application/json"
	return b
}

// Safety appends a safety setting, passed to the service as is.
func (b *RequestBuilder) Safety(category, threshold string) *RequestBuilder {
	b.req.SafetySettings = append(b.req.SafetySettings, SafetySetting{Category: category, Threshold: threshold})
	return b
}

// Clone returns an independent copy of the builder.
func (b *RequestBuilder) Clone() *RequestBuilder {
	return &RequestBuilder{client: b.client, req: *b.req.Clone()}
}

// Build returns a validated, deep-copied request.
func (b *RequestBuilder) Build() (*GenerationRequest, error) {
	req := b.req.Clone()
	if req.Model == "" {
		req.Model = b.client.model
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// GetResponse builds the request and runs Client.Generate.
func (b *RequestBuilder) GetResponse(ctx context.Context) (*GenerationResponse, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.client.Generate(ctx, req)
}

// Stream builds the request and runs Client.GenerateStream.
func (b *RequestBuilder) Stream(ctx context.Context) iter.Seq2[*StreamChunk, error] {
	req, err := b.Build()
	if err != nil {
		return func(yield func(*StreamChunk, error) bool) {
			yield(nil, err)
		}
	}
	return b.client.GenerateStream(ctx, req)
}

func (b *RequestBuilder) config() *GenerationConfig {
	if b.req.Config == nil {
		b.req.Config = &GenerationConfig{}
	}
	return b.req.Config
}
