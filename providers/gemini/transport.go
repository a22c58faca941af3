package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/petal-labs/gemkit/core"
)

// maxErrorBody bounds how much of an error response is read for classification.
const maxErrorBody = 64 << 10

var errHeaderTimeout = fmt.Errorf("gemini: no response headers within timeout: %w", context.DeadlineExceeded)

// do sends one HTTP request. The returned error is unclassified.
func (p *Gemini) do(ctx context.Context, call *core.Call) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if len(call.Body) > 0 {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, body)
	if err != nil {
		return nil, err
	}
	req.Header = call.Header.Clone()
	return p.config.HTTPClient.Do(req)
}

// roundTrip performs a bounded request and returns the whole body.
// Non-2xx statuses are classified.
func (p *Gemini) roundTrip(ctx context.Context, call *core.Call) (int, []byte, error) {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	resp, err := p.do(ctx, call)
	if err != nil {
		return 0, nil, newTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, nil, p.statusError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, newTransportError(err)
	}
	return resp.StatusCode, respBody, nil
}

// openStream sends the request and waits for response headers. The timeout
// covers the wait for headers only; the body is bounded by ctx alone.
func (p *Gemini) openStream(ctx context.Context, call *core.Call) (*http.Response, context.CancelCauseFunc, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	var timer *time.Timer
	if p.config.Timeout > 0 {
		timer = time.AfterFunc(p.config.Timeout, func() { cancel(errHeaderTimeout) })
	}

	resp, err := p.do(ctx, call)
	if timer != nil && !timer.Stop() && err == nil {
		resp.Body.Close()
		cancel(nil)
		return nil, nil, newTransportError(errHeaderTimeout)
	}
	if err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errHeaderTimeout) {
			err = cause
		}
		cancel(nil)
		return nil, nil, newTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := p.statusError(resp)
		resp.Body.Close()
		cancel(nil)
		return nil, nil, err
	}
	return resp, cancel, nil
}

func (p *Gemini) statusError(resp *http.Response) error {
	// A failed read still leaves the status to classify by.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return classifyStatus(resp.StatusCode, resp.Header, body, p.now())
}

func (p *Gemini) now() time.Time {
	if p.clock != nil {
		return p.clock()
	}
	return time.Now()
}
