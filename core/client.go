package core

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Provider is the protocol a backend implements for the Client.
// Providers MUST be safe for concurrent calls.
//
// Prepare is pure: it encodes and resolves the request without I/O, so
// configuration and validation faults surface before any network cost.
// Send and OpenStream each perform exactly one attempt; the Client owns retries.
type Provider interface {
	// ID returns the provider identifier (e.g., "gemini").
	ID() string

	// Prepare encodes req and resolves its endpoint.
	Prepare(req *GenerationRequest, streaming bool) (*Call, error)

	// Send performs one non-streaming attempt.
	Send(ctx context.Context, call *Call) (*GenerationResponse, error)

	// OpenStream performs one streaming attempt up to the response headers.
	OpenStream(ctx context.Context, call *Call) (ChunkReader, error)
}

// Call is an encoded request bound to its endpoint. It can be sent any number of times.
//
// Header carries the credential: never log a Call.
type Call struct {
	Model     ModelID
	Streaming bool
	Method    string
	URL       string
	Header    http.Header
	Body      []byte
}

// Client is the main entry point for generation calls.
// Client is safe for concurrent use.
type Client struct {
	provider  Provider
	telemetry TelemetryHook
	retry     RetryPolicy
	model     ModelID
	newID     func() string
	sleep     func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given provider and options.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:  p,
		telemetry: NoopTelemetryHook{},
		retry:     DefaultRetryPolicy(),
		newID:     uuid.NewString,
		sleep:     sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.telemetry = h
		}
	}
}

// WithRetryPolicy sets the retry policy for the client.
func WithRetryPolicy(r RetryPolicy) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.retry = r
		}
	}
}

// WithDefaultModel sets the model used when a request leaves Model empty.
func WithDefaultModel(m ModelID) ClientOption {
	return func(c *Client) {
		c.model = m
	}
}

// WithRequestIDFunc replaces the generator for per-call request ids.
func WithRequestIDFunc(f func() string) ClientOption {
	return func(c *Client) {
		if f != nil {
			c.newID = f
		}
	}
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// DefaultModel returns the model used when a request leaves Model empty.
func (c *Client) DefaultModel() ModelID {
	return c.model
}

// Generate runs a non-streaming call, retrying transient failures.
// On failure the error is an *APIError carrying the last attempt's classification.
func (c *Client) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	call, err := c.prepare(req, false)
	if err != nil {
		return nil, err
	}

	start := c.begin(call, false)
	var resp *GenerationResponse
	attempts, err := c.withRetry(ctx, start, func(ctx context.Context) error {
		var err error
		resp, err = c.provider.Send(ctx, call)
		return err
	})

	end := RequestEndEvent{
		Provider:  start.Provider,
		Model:     start.Model,
		RequestID: start.RequestID,
		Start:     start.Start,
		Attempts:  attempts,
		Err:       err,
	}
	if err != nil {
		c.finish(end)
		return nil, err
	}
	resp.RequestID = start.RequestID
	end.Usage = resp.Usage
	c.finish(end)
	return resp, nil
}

// GenerateStream runs a streaming call and returns its chunks as a sequence.
//
// Transient failures are retried only until the first chunk arrives. After
// that a failure is yielded as the final element and the sequence ends.
// Chunks already yielded are never retracted.
//
// The sequence can be ranged over once. Breaking out of the loop, context
// cancellation and errors all release the underlying connection.
func (c *Client) GenerateStream(ctx context.Context, req *GenerationRequest) iter.Seq2[*StreamChunk, error] {
	call, prepErr := c.prepare(req, true)
	var used atomic.Bool

	return func(yield func(*StreamChunk, error) bool) {
		if used.Swap(true) {
			yield(nil, ErrStreamConsumed)
			return
		}
		if prepErr != nil {
			yield(nil, prepErr)
			return
		}

		start := c.begin(call, true)
		end := RequestEndEvent{
			Provider:  start.Provider,
			Model:     start.Model,
			RequestID: start.RequestID,
			Streaming: true,
			Start:     start.Start,
		}
		defer func() { c.finish(end) }()

		var reader ChunkReader
		var first *StreamChunk
		attempts, err := c.withRetry(ctx, start, func(ctx context.Context) error {
			r, err := c.provider.OpenStream(ctx, call)
			if err != nil {
				return err
			}
			chunk, err := r.Next()
			if err != nil {
				r.Close()
				return err
			}
			reader, first = r, chunk
			return nil
		})
		end.Attempts = attempts
		if err != nil {
			end.Err = err
			yield(nil, err)
			return
		}
		defer reader.Close()

		chunk := first
		for {
			chunk.RequestID = start.RequestID
			if chunk.Usage != nil {
				end.Usage = *chunk.Usage
			}
			end.Chunks++
			if !yield(chunk, nil) {
				return
			}

			chunk, err = reader.Next()
			if errors.Is(err, io.EOF) {
				end.TrailingRecords = reader.TrailingRecords()
				return
			}
			if err != nil {
				c.annotate(err, start.RequestID, attempts)
				end.Err = err
				yield(nil, err)
				return
			}
		}
	}
}

func (c *Client) prepare(req *GenerationRequest, streaming bool) (*Call, error) {
	if req == nil {
		return nil, invalidField("request", "is nil")
	}
	if req.Model == "" && c.model != "" {
		req = req.Clone()
		req.Model = c.model
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.provider.Prepare(req, streaming)
}

func (c *Client) begin(call *Call, streaming bool) RequestStartEvent {
	e := RequestStartEvent{
		Provider:  c.provider.ID(),
		Model:     call.Model,
		RequestID: c.newID(),
		Streaming: streaming,
		Start:     time.Now(),
	}
	c.telemetry.OnRequestStart(e)
	return e
}

func (c *Client) finish(e RequestEndEvent) {
	e.End = time.Now()
	c.telemetry.OnRequestEnd(e)
}

// withRetry runs fn until it succeeds, the policy gives up, or ctx ends.
// It returns the number of attempts made and the last error.
func (c *Client) withRetry(ctx context.Context, start RequestStartEvent, fn func(context.Context) error) (int, error) {
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		c.annotate(err, start.RequestID, attempt+1)

		if ctx.Err() != nil {
			return attempt + 1, err
		}
		delay, ok := c.retry.NextDelay(attempt, err)
		if !ok {
			return attempt + 1, err
		}

		ev := RetryEvent{
			Provider:  start.Provider,
			Model:     start.Model,
			RequestID: start.RequestID,
			Attempt:   attempt + 1,
			Delay:     delay,
		}
		var ae *APIError
		if errors.As(err, &ae) {
			ev.Kind, ev.Status = ae.Kind, ae.Status
		}
		c.telemetry.OnRetry(ev)

		if c.sleep(ctx, delay) != nil {
			return attempt + 1, err
		}
	}
}

func (c *Client) annotate(err error, requestID string, attempts int) {
	var ae *APIError
	if errors.As(err, &ae) {
		ae.RequestID = requestID
		ae.Attempts = attempts
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
