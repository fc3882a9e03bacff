package noupe

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// EventShape classifies one line of the backend's pseudo-stream. The backend
// emits many bookkeeping events; only two shapes carry the final answer.
type EventShape int

const (
	// ShapeUnrecognized marks informational events that are skipped.
	ShapeUnrecognized EventShape = iota
	// ShapeChatResponse carries the answer at parameters.chatResponse.content.
	ShapeChatResponse
	// ShapeFinalMessage carries the answer at content.message.
	ShapeFinalMessage
)

func (s EventShape) String() string {
	switch s {
	case ShapeChatResponse:
		return "chat_response"
	case ShapeFinalMessage:
		return "final_message"
	default:
		return "unrecognized"
	}
}

// Event is the classification of one stream line.
type Event struct {
	Shape   EventShape
	Content string
}

// Answer reports whether the event carries the captured answer.
func (e Event) Answer() bool {
	return e.Shape != ShapeUnrecognized && e.Content != ""
}

// ParseEvent parses one non-blank stream line and classifies it. The two
// capture shapes are probed in fixed syntactic order within a single event;
// stream order decides between events. A line that is not a JSON object is an
// error so the scanner can log and skip it without aborting the scan.
func ParseEvent(line []byte) (Event, error) {
	if !gjson.ValidBytes(line) {
		return Event{}, fmt.Errorf("noupe: line is not valid JSON")
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return Event{Shape: ShapeUnrecognized}, nil
	}

	if v := root.Get("parameters.chatResponse.content"); v.Type == gjson.String && v.Str != "" {
		return Event{Shape: ShapeChatResponse, Content: v.Str}, nil
	}
	if v := root.Get("content.message"); v.Type == gjson.String && v.Str != "" {
		return Event{Shape: ShapeFinalMessage, Content: v.Str}, nil
	}
	return Event{Shape: ShapeUnrecognized}, nil
}
