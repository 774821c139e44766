package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/answerdesk/answerdesk/internal/rag"
)

// failureMessage is what clients see when generation breaks. The
// underlying error stays in the logs.
const failureMessage = "An error occurred while generating the response."

// Generator streams an answer for a question grounded in citations.
// The returned channel is closed after the terminal event; a canceled
// context stops the stream without a terminal frame.
type Generator interface {
	Stream(ctx context.Context, query string, citations []rag.Citation, history []Turn) <-chan Event
}

// buildSystemPrompt assembles the grounding context and answer rules
// for the model. refusal is the sentence the model must reply with
// when the excerpts do not cover the question.
func buildSystemPrompt(citations []rag.Citation, refusal string) string {
	var b strings.Builder
	b.WriteString("You are a customer support assistant. Answer questions using ONLY the documentation excerpts below.\n\n")
	for _, c := range citations {
		fmt.Fprintf(&b, "From %s (section %d):\n%s\n\n", c.Filename, c.ParagraphIndex+1, c.Content)
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Answer only from the excerpts above; never invent details.\n")
	fmt.Fprintf(&b, "- If the excerpts do not answer the question, reply exactly: %q\n", refusal)
	b.WriteString("- Cite sources inline as [filename §section].\n")
	b.WriteString("- Remember that refunds are only available within 30 days of purchase.\n")
	return b.String()
}

// send delivers ev unless ctx is already done. The bool is false when
// the stream should stop.
func send(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
