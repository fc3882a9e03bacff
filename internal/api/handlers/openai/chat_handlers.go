// Package openai implements the OpenAI-compatible endpoints of Noupe2API.
// The chat-completions handler is the completion orchestrator: it builds the
// backend payload, scans the pseudo-stream for the answer, and presents the
// captured answer either as one JSON completion or as a simulated SSE
// delta-stream.
package openai

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/lzA6/noupe2api/internal/api/handlers"
	"github.com/lzA6/noupe2api/internal/api/middleware"
	apperrors "github.com/lzA6/noupe2api/internal/errors"
	"github.com/lzA6/noupe2api/internal/noupe"
	chatcompletions "github.com/lzA6/noupe2api/internal/translator/noupe/openai/chat-completions"
)

// OpenAIAPIHandler contains the handlers for the OpenAI-compatible API
// endpoints.
type OpenAIAPIHandler struct {
	*handlers.BaseAPIHandler
}

// NewOpenAIAPIHandler creates a new OpenAI API handlers instance.
func NewOpenAIAPIHandler(base *handlers.BaseAPIHandler) *OpenAIAPIHandler {
	return &OpenAIAPIHandler{BaseAPIHandler: base}
}

// ChatRequest is the inbound OpenAI chat-completions body. Fields the proxy
// cannot honor (temperature, penalties, tools) are accepted and ignored.
type ChatRequest struct {
	Model    string          `json:"model"`
	Messages []noupe.Message `json:"messages"`
	Stream   bool            `json:"stream"`
}

// ChatCompletions handles POST /v1/chat/completions. The backend is
// pseudo-streaming: the full answer is always captured first, then presented
// in whichever mode the client asked for.
func (h *OpenAIAPIHandler) ChatCompletions(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		handlers.WriteErrorResponse(c, apperrors.NewInvalidRequest("failed to read request body", err))
		return
	}

	var chatReq ChatRequest
	if err = json.Unmarshal(body, &chatReq); err != nil {
		handlers.WriteErrorResponse(c, apperrors.NewInvalidRequest("invalid JSON in request body", err))
		return
	}

	cfg, client, _ := h.Snapshot()
	if cfg.RequestLog {
		log.Debugf("inbound chat request: %s", body)
	}

	modelName := chatReq.Model
	if modelName == "" {
		modelName = cfg.DefaultModelName()
	}

	payload, err := noupe.BuildPayload(chatReq.Messages, cfg.Noupe.ChatID)
	if err != nil {
		appErr, ok := err.(*apperrors.AppError)
		if !ok {
			appErr = apperrors.NewInternal("failed to build backend payload", err)
		}
		handlers.WriteErrorResponse(c, appErr)
		return
	}

	log.WithFields(log.Fields{
		"model":    modelName,
		"messages": len(chatReq.Messages),
		"stream":   chatReq.Stream,
	}).Info("forwarding chat request to Noupe backend")

	result := client.FetchAnswer(c.Request.Context(), payload)
	answer, found := result.Answer()
	if !found {
		middleware.RecordScanOutcome("empty")
		handlers.WriteErrorResponse(c, apperrors.NewUpstreamEmpty("failed to obtain a valid reply from the upstream service"))
		return
	}
	middleware.RecordScanOutcome("found")

	if chatReq.Stream {
		h.streamResponse(c, modelName, answer, cfg.CharDelay())
		return
	}
	c.Data(http.StatusOK, "application/json", chatcompletions.ConvertNoupeResponseToOpenAINonStream(modelName, answer))
}

// streamResponse drives the simulated delta-stream: role chunk, per-character
// content chunks, stop chunk, then the [DONE] terminator. Emission stops
// promptly when the client disconnects.
func (h *OpenAIAPIHandler) streamResponse(c *gin.Context, modelName, answer string, delay time.Duration) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		handlers.WriteErrorResponse(c, apperrors.NewInternal("streaming not supported by this connection", nil))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	var pacer *time.Ticker
	if delay > 0 {
		pacer = time.NewTicker(delay)
		defer pacer.Stop()
	}

	for i, chunk := range chatcompletions.ConvertNoupeResponseToOpenAI(modelName, answer) {
		if pacer != nil && i > 0 {
			select {
			case <-ctx.Done():
				log.Debug("client disconnected during simulated stream")
				return
			case <-pacer.C:
			}
		} else if ctx.Err() != nil {
			log.Debug("client disconnected during simulated stream")
			return
		}
		handlers.WriteSSEData(c.Writer, chunk)
		flusher.Flush()
	}

	handlers.WriteSSEDone(c.Writer)
	flusher.Flush()
}
