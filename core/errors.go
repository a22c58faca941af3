package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies an APIError. The set is closed.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindTimeout
	KindAuthFailure
	KindInvalidRequest
	KindRateLimited
	KindServerError
	KindDecode
	KindSafetyBlocked
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuthFailure:
		return "auth_failure"
	case KindInvalidRequest:
		return "invalid_request"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindDecode:
		return "decode"
	case KindSafetyBlocked:
		return "safety_blocked"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Retryable reports whether re-issuing the same request may succeed.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindNetwork, KindTimeout, KindServerError, KindRateLimited:
		return true
	default:
		return false
	}
}

// Sentinel returns the sentinel error matched by errors.Is for this kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindTimeout:
		return ErrTimeout
	case KindAuthFailure:
		return ErrAuthFailure
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindRateLimited:
		return ErrRateLimited
	case KindServerError:
		return ErrServer
	case KindDecode:
		return ErrDecode
	case KindSafetyBlocked:
		return ErrSafetyBlocked
	default:
		return nil
	}
}

// Sentinel errors for classification.
var (
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("timeout")
	ErrAuthFailure    = errors.New("auth failure")
	ErrInvalidRequest = errors.New("invalid request")
	ErrRateLimited    = errors.New("rate limited")
	ErrServer         = errors.New("server error")
	ErrDecode         = errors.New("decode error")
	ErrSafetyBlocked  = errors.New("safety blocked")
)

// ErrStreamConsumed is yielded when a stream sequence is ranged over a second time.
var ErrStreamConsumed = errors.New("stream already consumed: start a new call")

// Validation errors with actionable guidance.
var (
	ErrModelRequired = errors.New("model required: pass a model ID to Client.Request(), e.g. client.Request(\"gemini-2.5-flash\")")
	ErrNoContents    = errors.New("no contents: add at least one turn using .User() or .Parts()")
)

// MaxFragment bounds APIError.Fragment.
const MaxFragment = 256

// APIError is the single error type returned for every failed call.
//
// Kind selects which payload fields are meaningful:
//   - KindInvalidRequest: Field, Reason
//   - KindRateLimited: RetryAfter (zero when the service gave no hint)
//   - KindServerError: Status
//   - KindDecode: Fragment, a bounded excerpt of the offending payload
//
// Status, Code and Message are filled whenever an HTTP response was received.
type APIError struct {
	Kind       ErrorKind
	Provider   string
	Status     int
	Code       string
	Message    string
	RequestID  string
	Field      string
	Reason     string
	RetryAfter time.Duration
	Fragment   string
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var sb strings.Builder
	if e.Provider != "" {
		sb.WriteString(e.Provider)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.String())

	switch {
	case e.Message != "":
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	case e.Reason != "":
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	case e.Err != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	var attrs []string
	if e.Field != "" {
		attrs = append(attrs, "field="+e.Field)
	}
	if e.Status != 0 {
		attrs = append(attrs, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Code != "" {
		attrs = append(attrs, "code="+e.Code)
	}
	if e.RetryAfter > 0 {
		attrs = append(attrs, "retry_after="+e.RetryAfter.String())
	}
	if e.Attempts > 1 {
		attrs = append(attrs, fmt.Sprintf("attempts=%d", e.Attempts))
	}
	if e.RequestID != "" {
		attrs = append(attrs, "request_id="+e.RequestID)
	}
	if len(attrs) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(attrs, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Retryable reports whether the error kind is transient.
func (e *APIError) Retryable() bool {
	return e.Kind.Retryable()
}

// KindOf returns the kind of the first APIError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// InvalidRequestError builds a KindInvalidRequest error for field.
func InvalidRequestError(field, reason string) *APIError {
	return invalidField(field, reason)
}

func invalidField(field, reason string) *APIError {
	return &APIError{Kind: KindInvalidRequest, Field: field, Reason: reason}
}

// BoundFragment truncates b to at most MaxFragment bytes without splitting a UTF-8 sequence.
func BoundFragment(b []byte) string {
	if len(b) <= MaxFragment {
		return string(b)
	}
	cut := MaxFragment
	for cut > 0 && b[cut]&0xC0 == 0x80 {
		cut--
	}
	return string(b[:cut])
}
