package generate

import (
	"context"
	"strings"
	"time"

	"github.com/answerdesk/answerdesk/internal/log"
	"github.com/answerdesk/answerdesk/internal/rag"
)

// DefaultMockDelay is the pause between streamed words.
const DefaultMockDelay = 50 * time.Millisecond

// DefaultRefusal is the answer used when retrieval finds nothing
// relevant.
const DefaultRefusal = "I don't have enough information to answer that question accurately. Please check our documentation or contact support."

// Canned answers selected by the top citation's source document.
var mockAnswers = []struct {
	match  string
	answer string
}{
	{
		match: "pricing",
		answer: "We offer three pricing tiers: the Starter plan at $29/month, the Professional plan at " +
			"$79/month, and the Enterprise plan with custom pricing. All paid plans include a 14-day free trial.",
	},
	{
		match: "refund",
		answer: "We offer a 30-day money-back guarantee on all new subscriptions. To request a refund, " +
			"contact support with your account email and the refund will be processed within 5-7 business days.",
	},
	{
		match: "getting-started",
		answer: "To get started, sign up for an account, generate an API key from the Settings page, and " +
			"make your first request. Keep your API key in an environment variable rather than in source code.",
	},
}

// Mock streams canned answers without a model backend. It keeps the
// same frame ordering and timing shape as the real generator so the
// rest of the service exercises identical paths.
type Mock struct {
	delay   time.Duration
	refusal string
	logger  log.Logger
}

// NewMock builds a mock generator. A zero delay streams as fast as the
// consumer reads.
func NewMock(delay time.Duration, refusal string, logger log.Logger) *Mock {
	if refusal == "" {
		refusal = DefaultRefusal
	}
	return &Mock{
		delay:   delay,
		refusal: refusal,
		logger:  logger.With("component", "generate.mock"),
	}
}

// Stream emits start, the selected answer word by word, then end.
func (m *Mock) Stream(ctx context.Context, query string, citations []rag.Citation, history []Turn) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)

		answer := m.selectAnswer(citations)
		m.logger.Debug("streaming mock answer", "query", query, "citations", len(citations))

		if !send(ctx, out, Event{Type: EventStart}) {
			return
		}
		for _, word := range strings.Fields(answer) {
			if !m.pause(ctx) {
				return
			}
			if !send(ctx, out, Event{Type: EventChunk, Content: word + " "}) {
				return
			}
		}
		send(ctx, out, Event{Type: EventEnd, Content: answer, Citations: citations})
	}()
	return out
}

// selectAnswer picks the canned answer whose key appears in the top
// citation's filename, or the refusal when nothing was retrieved.
func (m *Mock) selectAnswer(citations []rag.Citation) string {
	if len(citations) == 0 {
		return m.refusal
	}
	top := strings.ToLower(citations[0].Filename)
	for _, ca := range mockAnswers {
		if strings.Contains(top, ca.match) {
			return ca.answer
		}
	}
	return m.refusal
}

func (m *Mock) pause(ctx context.Context) bool {
	if m.delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-time.After(m.delay):
		return true
	case <-ctx.Done():
		return false
	}
}
