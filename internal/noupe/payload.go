// Package noupe implements the client side of the Noupe agent chat protocol:
// building the proprietary request payload and scanning the backend's
// JSON-lines pseudo-stream for the single event that carries the answer.
package noupe

import (
	"encoding/json"

	apperrors "github.com/lzA6/noupe2api/internal/errors"
)

// Message is one turn of the inbound conversation, already validated by the
// API layer.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Inbound message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// payload mirrors the request schema the embed widget sends. Everything
// except answer and the two question flags is a fixed protocol constant.
type payload struct {
	ChatID               string       `json:"chatID"`
	Answer               string       `json:"answer"`
	AnswerType           *string      `json:"answerType"`
	IsFirstQuestion      bool         `json:"isFirstQuestion"`
	IsPastQuestion       bool         `json:"isPastQuestion"`
	ConversationFeedback bool         `json:"conversationFeedback"`
	MessageHistory       []string     `json:"messageHistory"`
	Platform             string       `json:"platform"`
	MessageType          string       `json:"messageType"`
	EmbedMode            string       `json:"embedMode"`
	ChatProps            chatProps    `json:"chatProps"`
	MessageProps         messageProps `json:"messageProps"`
	ScreenShareActive    bool         `json:"screenShareActive"`
}

type chatProps struct {
	IsOneOne             bool   `json:"isOneOne"`
	IsMasterPrompt       bool   `json:"isMasterPrompt"`
	IsFormCopilot        bool   `json:"isFormCopilot"`
	IsFormBuilderCopilot bool   `json:"isFormBuilderCopilot"`
	EmbedModeVariant     string `json:"embedModeVariant"`
}

type messageProps struct {
	IsVoice bool `json:"isVoice"`
}

// BuildPayload maps an OpenAI-style message list onto the Noupe request
// schema. The backend accepts a single question per call, so the content of
// the last user message becomes the answer field; prior turns only decide the
// first-question/past-question flags and are otherwise not forwarded. That
// mirrors what the embed widget itself sends.
//
// Parameters:
//   - messages: The conversation in order, at least one user turn required
//   - chatID: The configured chat session identifier
//
// Returns:
//   - []byte: The JSON payload for the backend call
//   - error: An invalid-request AppError when no user message exists
func BuildPayload(messages []Message, chatID string) ([]byte, error) {
	var question string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser && messages[i].Content != "" {
			question = messages[i].Content
			break
		}
	}
	if question == "" {
		return nil, apperrors.NewInvalidRequest("no user message found in request", nil)
	}

	p := payload{
		ChatID:          chatID,
		Answer:          question,
		IsFirstQuestion: len(messages) <= 1,
		IsPastQuestion:  len(messages) > 1,
		MessageHistory:  []string{},
		Platform:        "embed",
		MessageType:     "USER",
		EmbedMode:       "popover",
		ChatProps: chatProps{
			IsMasterPrompt:   true,
			EmbedModeVariant: "noupeAgent",
		},
	}
	return json.Marshal(p)
}
