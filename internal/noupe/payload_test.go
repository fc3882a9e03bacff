package noupe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/lzA6/noupe2api/internal/errors"
)

func TestBuildPayload_SelectsLastUserMessage(t *testing.T) {
	messages := []Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
		{Role: RoleAssistant, Content: "second answer"},
	}

	raw, err := BuildPayload(messages, "chat-1")
	require.NoError(t, err)

	assert.Equal(t, "second question", gjson.GetBytes(raw, "answer").String())
	assert.Equal(t, "chat-1", gjson.GetBytes(raw, "chatID").String())
	assert.False(t, gjson.GetBytes(raw, "isFirstQuestion").Bool())
	assert.True(t, gjson.GetBytes(raw, "isPastQuestion").Bool())
}

func TestBuildPayload_SingleMessageIsFirstQuestion(t *testing.T) {
	raw, err := BuildPayload([]Message{{Role: RoleUser, Content: "hello"}}, "chat-1")
	require.NoError(t, err)

	assert.True(t, gjson.GetBytes(raw, "isFirstQuestion").Bool())
	assert.False(t, gjson.GetBytes(raw, "isPastQuestion").Bool())
}

func TestBuildPayload_ProtocolConstants(t *testing.T) {
	raw, err := BuildPayload([]Message{{Role: RoleUser, Content: "hello"}}, "chat-1")
	require.NoError(t, err)

	assert.Equal(t, "embed", gjson.GetBytes(raw, "platform").String())
	assert.Equal(t, "USER", gjson.GetBytes(raw, "messageType").String())
	assert.Equal(t, "popover", gjson.GetBytes(raw, "embedMode").String())
	assert.Equal(t, "noupeAgent", gjson.GetBytes(raw, "chatProps.embedModeVariant").String())
	assert.True(t, gjson.GetBytes(raw, "chatProps.isMasterPrompt").Bool())
	assert.False(t, gjson.GetBytes(raw, "messageProps.isVoice").Bool())
	assert.False(t, gjson.GetBytes(raw, "conversationFeedback").Bool())
	assert.False(t, gjson.GetBytes(raw, "screenShareActive").Bool())

	// answerType must serialize as an explicit null, messageHistory as [].
	assert.Equal(t, gjson.Null, gjson.GetBytes(raw, "answerType").Type)
	history := gjson.GetBytes(raw, "messageHistory")
	assert.True(t, history.IsArray())
	assert.Empty(t, history.Array())
}

func TestBuildPayload_NoUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
	}{
		{"empty list", nil},
		{"only system and assistant", []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleAssistant, Content: "hi"},
		}},
		{"user message with empty content", []Message{
			{Role: RoleUser, Content: ""},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPayload(tt.messages, "chat-1")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeInvalidRequest, appErr.Code)
		})
	}
}
