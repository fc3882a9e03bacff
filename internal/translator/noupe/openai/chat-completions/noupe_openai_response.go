// Package chat_completions provides response translation functionality for
// Noupe to OpenAI Chat Completions API compatibility. The Noupe backend
// returns the whole answer atomically, so the streaming variant synthesizes
// the delta-chunk sequence an OpenAI client expects from a single captured
// string.
package chat_completions

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"
)

const nonStreamTemplate = `{"id":"","object":"chat.completion","created":0,"model":"","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"stop"}],"usage":{"prompt_tokens":0,"completion_tokens":0,"total_tokens":0}}`

const chunkTemplate = `{"id":"","object":"chat.completion.chunk","created":0,"model":"","choices":[{"index":0,"delta":{},"finish_reason":null}]}`

// NewCompletionID generates a synthetic completion identifier in the
// chatcmpl-<hex> form OpenAI clients expect.
func NewCompletionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ConvertNoupeResponseToOpenAINonStream renders a captured answer as a single
// OpenAI chat completion object. The backend provides no token accounting, so
// every usage counter is reported as zero rather than fabricated.
//
// Parameters:
//   - modelName: The model name echoed back to the client
//   - answer: The captured answer text (validated non-empty by the caller)
//
// Returns:
//   - []byte: An OpenAI-compatible JSON completion
func ConvertNoupeResponseToOpenAINonStream(modelName, answer string) []byte {
	return buildNonStream(NewCompletionID(), time.Now().Unix(), modelName, answer)
}

func buildNonStream(id string, created int64, modelName, answer string) []byte {
	out := []byte(nonStreamTemplate)
	out, _ = sjson.SetBytes(out, "id", id)
	out, _ = sjson.SetBytes(out, "created", created)
	out, _ = sjson.SetBytes(out, "model", modelName)
	out, _ = sjson.SetBytes(out, "choices.0.message.content", answer)
	return out
}

// ConvertNoupeResponseToOpenAI renders a captured answer as the finite
// sequence of OpenAI delta chunks: one role announcement, one content chunk
// per character, and a terminal stop chunk. All chunks share one synthetic id
// and creation timestamp. The [DONE] terminator is an SSE framing concern and
// is written by the handler, not included here.
//
// Parameters:
//   - modelName: The model name echoed back to the client
//   - answer: The captured answer text
//
// Returns:
//   - [][]byte: The ordered chunk payloads, each one JSON object
func ConvertNoupeResponseToOpenAI(modelName, answer string) [][]byte {
	return buildStream(NewCompletionID(), time.Now().Unix(), modelName, answer)
}

func buildStream(id string, created int64, modelName, answer string) [][]byte {
	base := []byte(chunkTemplate)
	base, _ = sjson.SetBytes(base, "id", id)
	base, _ = sjson.SetBytes(base, "created", created)
	base, _ = sjson.SetBytes(base, "model", modelName)

	runes := []rune(answer)
	chunks := make([][]byte, 0, len(runes)+2)

	roleChunk, _ := sjson.SetBytes(cloneBytes(base), "choices.0.delta.role", "assistant")
	chunks = append(chunks, roleChunk)

	for _, r := range runes {
		contentChunk, _ := sjson.SetBytes(cloneBytes(base), "choices.0.delta.content", string(r))
		chunks = append(chunks, contentChunk)
	}

	stopChunk, _ := sjson.SetBytes(cloneBytes(base), "choices.0.finish_reason", "stop")
	chunks = append(chunks, stopChunk)

	return chunks
}

func cloneBytes(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}
