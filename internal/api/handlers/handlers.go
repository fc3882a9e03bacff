// Package handlers provides core API handler functionality shared across the
// Noupe2API endpoints: the OpenAI-style error envelope, the base handler
// holding hot-reloadable configuration, and SSE frame writers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/lzA6/noupe2api/internal/config"
	apperrors "github.com/lzA6/noupe2api/internal/errors"
	"github.com/lzA6/noupe2api/internal/noupe"
	"github.com/lzA6/noupe2api/internal/registry"
)

// ErrorResponse represents a standard error response format for the API.
// It contains a single ErrorDetail field.
type ErrorResponse struct {
	// Error contains detailed information about the error that occurred.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail provides specific information about an error that occurred.
type ErrorDetail struct {
	// Message is a human-readable message providing more details about the error.
	Message string `json:"message"`

	// Type is the category of error that occurred (e.g., "invalid_request_error").
	Type string `json:"type"`

	// Code is a short code identifying the error, if applicable.
	Code string `json:"code,omitempty"`
}

// BaseAPIHandler carries the state the endpoint handlers need: current
// configuration, the upstream client, and the model registry. Configuration
// hot-reload swaps all three atomically.
type BaseAPIHandler struct {
	mu       sync.RWMutex
	cfg      *config.Config
	client   *noupe.Client
	registry *registry.ModelRegistry
}

// NewBaseAPIHandler creates the shared handler state from the loaded
// configuration.
func NewBaseAPIHandler(cfg *config.Config) *BaseAPIHandler {
	h := &BaseAPIHandler{}
	h.Update(cfg)
	return h
}

// Update swaps in a new configuration, rebuilding the upstream client and
// model registry. Called on config hot-reload.
func (h *BaseAPIHandler) Update(cfg *config.Config) {
	client := noupe.NewClient(cfg)
	models := registry.NewModelRegistry(cfg.Noupe.Models)

	h.mu.Lock()
	h.cfg = cfg
	h.client = client
	h.registry = models
	h.mu.Unlock()
}

// Snapshot returns a consistent view of the current configuration, upstream
// client, and registry.
func (h *BaseAPIHandler) Snapshot() (*config.Config, *noupe.Client, *registry.ModelRegistry) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg, h.client, h.registry
}

// Cfg returns the current configuration.
func (h *BaseAPIHandler) Cfg() *config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// WriteErrorResponse writes an AppError as an OpenAI-compatible JSON error
// envelope. Plain-text bodies commonly show up as "(no body)" in OpenAI SDKs,
// so the body is always a JSON object.
func WriteErrorResponse(c *gin.Context, appErr *apperrors.AppError) {
	status := http.StatusInternalServerError
	if appErr != nil && appErr.HTTPStatusCode > 0 {
		status = appErr.HTTPStatusCode
	}

	message := http.StatusText(status)
	code := ""
	if appErr != nil {
		if s := strings.TrimSpace(appErr.Message); s != "" {
			message = s
		}
		code = appErr.Code
	}

	errType := "invalid_request_error"
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		errType = "server_error"
	}

	c.Header("Content-Type", "application/json")
	c.Status(status)
	payload, _ := json.Marshal(ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errType,
			Code:    code,
		},
	})
	if len(payload) == 0 {
		payload = []byte(`{"error":{"message":"unknown error","type":"server_error"}}`)
	}
	_, _ = c.Writer.Write(payload)
}
