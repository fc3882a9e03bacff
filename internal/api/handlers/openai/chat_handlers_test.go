package openai

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/lzA6/noupe2api/internal/api/handlers"
	"github.com/lzA6/noupe2api/internal/config"
)

// newTestRouter wires the chat handlers against a fake Noupe backend with
// chunk pacing disabled so streaming tests run instantly.
func newTestRouter(t *testing.T, backend http.HandlerFunc) *gin.Engine {
	t.Helper()

	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)

	zero := 0
	cfg := &config.Config{
		Noupe: config.NoupeConfig{
			BaseURL:        upstream.URL,
			Cookie:         "session=test",
			AgentID:        "agent-1",
			ChatID:         "chat-1",
			TimeoutSeconds: 5,
			Models:         []string{"noupe-chat-model"},
		},
		Streaming: config.StreamingConfig{CharDelayMS: &zero},
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewOpenAIAPIHandler(handlers.NewBaseAPIHandler(cfg))
	engine.POST("/v1/chat/completions", h.ChatCompletions)
	engine.GET("/v1/models", h.Models)
	return engine
}

func answeringBackend(answer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"loading","content":{"showLoading":true}}`)
		fmt.Fprintf(w, `{"parameters":{"chatResponse":{"content":%q}}}`+"\n", answer)
	}
}

func doChat(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatCompletionsNonStream(t *testing.T) {
	router := newTestRouter(t, answeringBackend("Hello there"))

	w := doChat(router, `{"model":"noupe-chat-model","messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, "chat.completion", gjson.Get(body, "object").String())
	assert.Equal(t, "noupe-chat-model", gjson.Get(body, "model").String())
	assert.Equal(t, "Hello there", gjson.Get(body, "choices.0.message.content").String())
	assert.Equal(t, "assistant", gjson.Get(body, "choices.0.message.role").String())
	assert.Equal(t, "stop", gjson.Get(body, "choices.0.finish_reason").String())
	assert.True(t, strings.HasPrefix(gjson.Get(body, "id").String(), "chatcmpl-"))
	assert.Zero(t, gjson.Get(body, "usage.total_tokens").Int())
}

func TestChatCompletionsModelFallback(t *testing.T) {
	router := newTestRouter(t, answeringBackend("ok"))

	w := doChat(router, `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "noupe-chat-model", gjson.Get(w.Body.String(), "model").String())
}

func TestChatCompletionsStream(t *testing.T) {
	router := newTestRouter(t, answeringBackend("Hi"))

	w := doChat(router, `{"model":"noupe-chat-model","messages":[{"role":"user","content":"hi"}],"stream":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var frames []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}

	// role + one chunk per character + stop + [DONE]
	require.Len(t, frames, 5)
	assert.Equal(t, "assistant", gjson.Get(frames[0], "choices.0.delta.role").String())
	assert.Equal(t, "H", gjson.Get(frames[1], "choices.0.delta.content").String())
	assert.Equal(t, "i", gjson.Get(frames[2], "choices.0.delta.content").String())
	assert.Equal(t, "stop", gjson.Get(frames[3], "choices.0.finish_reason").String())
	assert.Equal(t, "[DONE]", frames[4])

	// All chunks share the synthetic id and timestamp.
	id := gjson.Get(frames[0], "id").String()
	created := gjson.Get(frames[0], "created").Int()
	for _, frame := range frames[1:4] {
		assert.Equal(t, id, gjson.Get(frame, "id").String())
		assert.Equal(t, created, gjson.Get(frame, "created").Int())
		assert.Equal(t, "chat.completion.chunk", gjson.Get(frame, "object").String())
	}
}

func TestChatCompletionsInvalidJSON(t *testing.T) {
	router := newTestRouter(t, answeringBackend("unused"))

	w := doChat(router, `{"messages": [`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Equal(t, "invalid_request_error", gjson.Get(body, "error.type").String())
	assert.NotEmpty(t, gjson.Get(body, "error.message").String())
}

func TestChatCompletionsNoUserMessage(t *testing.T) {
	router := newTestRouter(t, answeringBackend("unused"))

	w := doChat(router, `{"messages":[{"role":"system","content":"be nice"}]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request_error", gjson.Get(w.Body.String(), "error.type").String())
}

func TestChatCompletionsUpstreamEmpty(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"loading"}`)
		fmt.Fprintln(w, `{"type":"done"}`)
	})

	w := doChat(router, `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	body := w.Body.String()
	assert.Equal(t, "server_error", gjson.Get(body, "error.type").String())
	assert.Equal(t, "upstream_empty_response", gjson.Get(body, "error.code").String())
}

func TestChatCompletionsUpstreamError(t *testing.T) {
	router := newTestRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	w := doChat(router, `{"messages":[{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "upstream_empty_response", gjson.Get(w.Body.String(), "error.code").String())
}

func TestModels(t *testing.T) {
	router := newTestRouter(t, answeringBackend("unused"))

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "list", gjson.Get(body, "object").String())
	assert.Equal(t, "noupe-chat-model", gjson.Get(body, "data.0.id").String())
	assert.Equal(t, "model", gjson.Get(body, "data.0.object").String())
}
