package gemini

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/petal-labs/gemkit/core"
	"github.com/petal-labs/gemkit/providers/internal/normalize"
)

const (
	typeRetryInfo  = "type.googleapis.com/google.rpc.RetryInfo"
	typeBadRequest = "type.googleapis.com/google.rpc.BadRequest"
)

// 499 is what the service reports when the client went away mid-request.
var statusOverrides = map[int]core.ErrorKind{
	499: core.KindNetwork,
}

// classifyStatus turns an error-status response into an APIError.
// now anchors HTTP-date Retry-After values.
func classifyStatus(status int, header http.Header, body []byte, now time.Time) *core.APIError {
	var errResp geminiErrorResponse
	structured := json.Unmarshal(body, &errResp) == nil && errResp.Error != nil

	kind, ok := normalize.KindForStatusWithOverrides(status, statusOverrides)
	if !ok && structured {
		kind, ok = kindForCode(errResp.Error.Status)
	}
	if !ok {
		return normalize.DecodeError(providerID, status, body, nil)
	}

	var message, code string
	if structured {
		message = errResp.Error.Message
		code = errResp.Error.Status
	}
	apiErr := normalize.StatusError(providerID, kind, status, code, message)

	switch kind {
	case core.KindRateLimited:
		apiErr.RetryAfter = normalize.ParseRetryAfter(header.Get("Retry-After"), now)
		if apiErr.RetryAfter == 0 && structured {
			apiErr.RetryAfter = retryDelay(errResp.Error.Details)
		}
	case core.KindInvalidRequest:
		if structured {
			apiErr.Field, apiErr.Reason = fieldViolation(errResp.Error.Details)
		}
		if apiErr.Reason == "" {
			apiErr.Reason = apiErr.Message
		}
	}
	return apiErr
}

// classifyEmpty handles a 2xx body that carried no candidates.
func classifyEmpty(status int, body []byte, feedback *geminiPromptFeedback) *core.APIError {
	if feedback != nil && feedback.BlockReason != "" && feedback.BlockReason != "BLOCK_REASON_UNSPECIFIED" {
		return &core.APIError{
			Kind:     core.KindSafetyBlocked,
			Provider: providerID,
			Status:   status,
			Code:     feedback.BlockReason,
			Message:  "prompt blocked: " + strings.ToLower(feedback.BlockReason),
		}
	}
	return normalize.DecodeError(providerID, status, body, errNoCandidates)
}

// kindForCode maps a google.rpc.Code name, e.g. "RESOURCE_EXHAUSTED".
func kindForCode(name string) (core.ErrorKind, bool) {
	if name == "" {
		return 0, false
	}
	var c codes.Code
	if err := c.UnmarshalJSON([]byte(strconv.Quote(name))); err != nil {
		return 0, false
	}
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.NotFound,
		codes.OutOfRange, codes.AlreadyExists:
		return core.KindInvalidRequest, true
	case codes.Unauthenticated, codes.PermissionDenied:
		return core.KindAuthFailure, true
	case codes.ResourceExhausted:
		return core.KindRateLimited, true
	case codes.DeadlineExceeded:
		return core.KindTimeout, true
	case codes.Canceled:
		return core.KindNetwork, true
	case codes.Unavailable, codes.Internal, codes.Unknown, codes.Aborted, codes.DataLoss:
		return core.KindServerError, true
	default:
		return 0, false
	}
}

func retryDelay(details []json.RawMessage) time.Duration {
	for _, raw := range details {
		var d geminiErrorDetail
		if json.Unmarshal(raw, &d) != nil || d.Type != typeRetryInfo {
			continue
		}
		if v := normalize.ParseProtoDuration(d.RetryDelay); v > 0 {
			return v
		}
	}
	return 0
}

func fieldViolation(details []json.RawMessage) (field, reason string) {
	for _, raw := range details {
		var d geminiErrorDetail
		if json.Unmarshal(raw, &d) != nil || d.Type != typeBadRequest {
			continue
		}
		if len(d.FieldViolations) > 0 {
			return d.FieldViolations[0].Field, d.FieldViolations[0].Description
		}
	}
	return "", ""
}

// newTransportError classifies a fault raised before an HTTP status was obtained.
func newTransportError(err error) *core.APIError {
	return normalize.TransportError(providerID, err)
}

func newDecodeError(status int, body []byte, err error) *core.APIError {
	return normalize.DecodeError(providerID, status, body, err)
}
