// Package normalize provides shared provider error normalization helpers.
package normalize

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/petal-labs/gemkit/core"
)

// KindForStatus maps an HTTP status code to an error kind.
// ok is false for statuses the status line alone cannot classify.
func KindForStatus(status int) (kind core.ErrorKind, ok bool) {
	return KindForStatusWithOverrides(status, nil)
}

// KindForStatusWithOverrides maps an HTTP status code to an error kind,
// then applies any exact status overrides from the provided map.
func KindForStatusWithOverrides(status int, overrides map[int]core.ErrorKind) (core.ErrorKind, bool) {
	if override, ok := overrides[status]; ok {
		return override, true
	}

	switch {
	case status == http.StatusBadRequest,
		status == http.StatusNotFound,
		status == http.StatusConflict,
		status == http.StatusPreconditionFailed,
		status == http.StatusRequestEntityTooLarge,
		status == http.StatusUnprocessableEntity:
		return core.KindInvalidRequest, true
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.KindAuthFailure, true
	case status == http.StatusRequestTimeout:
		return core.KindTimeout, true
	case status == http.StatusTooManyRequests:
		return core.KindRateLimited, true
	case status >= 500 && status < 600:
		return core.KindServerError, true
	default:
		return 0, false
	}
}

// StatusError constructs an APIError for an HTTP error response.
// If message is empty, HTTP status text is used.
func StatusError(provider string, kind core.ErrorKind, status int, code, message string) *core.APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &core.APIError{
		Kind:     kind,
		Provider: provider,
		Status:   status,
		Code:     code,
		Message:  message,
	}
}

// TransportError classifies a fault raised before any HTTP status was obtained.
// Deadlines and net timeouts are KindTimeout; everything else is KindNetwork.
func TransportError(provider string, err error) *core.APIError {
	kind := core.KindNetwork
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		kind = core.KindTimeout
	}
	return &core.APIError{
		Kind:     kind,
		Provider: provider,
		Message:  err.Error(),
		Err:      err,
	}
}

// DecodeError wraps a parse failure, keeping a bounded excerpt of the payload.
func DecodeError(provider string, status int, body []byte, err error) *core.APIError {
	msg := "malformed response"
	if err != nil {
		msg = err.Error()
	}
	return &core.APIError{
		Kind:     core.KindDecode,
		Provider: provider,
		Status:   status,
		Message:  msg,
		Fragment: core.BoundFragment(body),
		Err:      err,
	}
}

// ParseRetryAfter reads a Retry-After header value given either as
// delay-seconds or as an HTTP date. It returns 0 when absent or unparseable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return fromSeconds(secs)
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// ParseProtoDuration reads a protobuf JSON duration such as "1.5s" or "30s".
func ParseProtoDuration(value string) time.Duration {
	if !strings.HasSuffix(value, "s") {
		return 0
	}
	secs, err := strconv.ParseFloat(strings.TrimSuffix(value, "s"), 64)
	if err != nil {
		return 0
	}
	return fromSeconds(secs)
}

// fromSeconds converts secs to a Duration, saturating at the largest
// Duration. Non-positive and NaN values give 0.
func fromSeconds(secs float64) time.Duration {
	if math.IsNaN(secs) || secs <= 0 {
		return 0
	}
	if secs >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(secs * float64(time.Second))
}
