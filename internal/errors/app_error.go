// Package errors defines the structured application error used across the
// proxy. Handlers convert AppError values into OpenAI-style error envelopes;
// everything below the handler layer either returns an AppError or swallows
// and logs transport noise.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes surfaced to clients.
const (
	CodeInvalidRequest = "invalid_request_error"
	CodeUpstreamEmpty  = "upstream_empty_response"
	CodeInternal       = "internal_error"
)

// AppError represents a structured application error.
type AppError struct {
	// HTTPStatusCode is the HTTP status code to return.
	HTTPStatusCode int `json:"-"`
	// Code is an internal error code string.
	Code string `json:"code"`
	// Message is the user-facing error message.
	Message string `json:"message"`
	// Err is the underlying error (not marshaled to JSON).
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ToJSON returns the JSON byte representation of the error.
func (e *AppError) ToJSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// New creates a new AppError.
func New(statusCode int, code, message string, err error) *AppError {
	return &AppError{
		HTTPStatusCode: statusCode,
		Code:           code,
		Message:        message,
		Err:            err,
	}
}

// NewInvalidRequest reports a malformed inbound request (bad body, missing
// user message).
func NewInvalidRequest(message string, err error) *AppError {
	return New(http.StatusBadRequest, CodeInvalidRequest, message, err)
}

// NewUpstreamEmpty reports that the backend stream finished without yielding
// an answer. The transport-level cause has already been logged by the scanner.
func NewUpstreamEmpty(message string) *AppError {
	return New(http.StatusBadGateway, CodeUpstreamEmpty, message, nil)
}

// NewInternal reports an unexpected failure caught at the orchestrator
// boundary.
func NewInternal(message string, err error) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, message, err)
}
