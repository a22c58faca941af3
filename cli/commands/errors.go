package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/gemkit/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

// exitError wraps an error with an exit code.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func errNoAPIKey(name string) error {
	return fmt.Errorf("no API key: pass --api-key, set %s, or run 'gemkit keys set %s'", APIKeyEnv, name)
}

// exitCodeFor maps an error kind to a process exit code.
func exitCodeFor(err error) int {
	switch core.KindOf(err) {
	case core.KindInvalidRequest:
		return ExitValidation
	case core.KindNetwork, core.KindTimeout:
		return ExitNetwork
	case 0:
		if errors.Is(err, core.ErrModelRequired) || errors.Is(err, core.ErrNoContents) {
			return ExitValidation
		}
	}
	return ExitProvider
}

// handleCallError reports a failed call and returns it with its exit code.
func (a *App) handleCallError(err error) error {
	a.printError(err)
	return &exitError{code: exitCodeFor(err), err: err, reported: true}
}

type errorBody struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Status     int    `json:"status,omitempty"`
	Code       string `json:"code,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Field      string `json:"field,omitempty"`
	Reason     string `json:"reason,omitempty"`
	RetryAfter string `json:"retry_after,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
}

func (a *App) printError(err error) {
	body := errorBody{Type: "error", Message: err.Error()}

	var ae *core.APIError
	if errors.As(err, &ae) {
		body.Type = ae.Kind.String()
		body.Message = ae.Message
		if body.Message == "" {
			body.Message = ae.Error()
		}
		body.Status = ae.Status
		body.Code = ae.Code
		body.RequestID = ae.RequestID
		body.Field = ae.Field
		body.Reason = ae.Reason
		body.Attempts = ae.Attempts
		if ae.RetryAfter > 0 {
			body.RetryAfter = ae.RetryAfter.String()
		}
	}

	if a.jsonOutput {
		enc := json.NewEncoder(a.stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]errorBody{"error": body})
		return
	}

	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	if ae != nil && (ae.RequestID != "" || ae.Attempts > 1) {
		fmt.Fprintf(a.stderr, "  Kind: %s, Request ID: %s, Attempts: %d\n", ae.Kind, ae.RequestID, ae.Attempts)
	}
}
