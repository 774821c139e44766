package generate

import "github.com/answerdesk/answerdesk/internal/rag"

// Event types, in the order a stream emits them: one start, zero or
// more chunks, then exactly one end or error.
const (
	EventStart = "start"
	EventChunk = "chunk"
	EventEnd   = "end"
	EventError = "error"
)

// Event is one frame of a streamed answer.
type Event struct {
	Type      string         `json:"type"`
	Content   string         `json:"content,omitempty"`
	Citations []rag.Citation `json:"citations,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Conversation roles accepted in request history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
