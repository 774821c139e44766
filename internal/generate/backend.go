package generate

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"golang.org/x/time/rate"

	"github.com/answerdesk/answerdesk/internal/log"
	"github.com/answerdesk/answerdesk/internal/rag"
)

// BackendConfig tunes the model-backed generator.
type BackendConfig struct {
	ModelName string
	Refusal   string
	MaxTokens int
	// RPS and Burst pace calls to the model API so a burst of
	// questions does not trip provider-side quotas.
	RPS   float64
	Burst int
}

// Backend generates answers with a Gemini model through Genkit.
type Backend struct {
	g       *genkit.Genkit
	cfg     BackendConfig
	limiter *rate.Limiter
	logger  log.Logger
}

// NewBackend initializes Genkit with the Google AI plugin. The plugin
// reads GEMINI_API_KEY from the environment.
func NewBackend(ctx context.Context, cfg BackendConfig, logger log.Logger) (*Backend, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("initialize genkit")
	}
	if cfg.Refusal == "" {
		cfg.Refusal = DefaultRefusal
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Backend{
		g:       g,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger.With("component", "generate.backend"),
	}, nil
}

// Stream emits start, model text as it arrives, then end. Failures
// after start become an error frame carrying a generic message.
func (b *Backend) Stream(ctx context.Context, query string, citations []rag.Citation, history []Turn) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)

		if err := b.limiter.Wait(ctx); err != nil {
			return
		}
		if !send(ctx, out, Event{Type: EventStart}) {
			return
		}

		messages := historyMessages(history)
		messages = append(messages, ai.NewUserMessage(ai.NewTextPart(query)))

		opts := []ai.GenerateOption{
			ai.WithModelName(b.cfg.ModelName),
			ai.WithSystem(buildSystemPrompt(citations, b.cfg.Refusal)),
			ai.WithMessages(messages...),
			ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
				text := chunk.Text()
				if text == "" {
					return nil
				}
				if !send(ctx, out, Event{Type: EventChunk, Content: text}) {
					return ctx.Err()
				}
				return nil
			}),
		}
		if b.cfg.MaxTokens > 0 {
			opts = append(opts, ai.WithConfig(map[string]any{"maxOutputTokens": b.cfg.MaxTokens}))
		}

		resp, err := genkit.Generate(ctx, b.g, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("generation failed", "error", err, "model", b.cfg.ModelName)
			send(ctx, out, Event{Type: EventError, Message: failureMessage})
			return
		}
		send(ctx, out, Event{Type: EventEnd, Content: resp.Text(), Citations: citations})
	}()
	return out
}

// historyMessages converts prior turns into model messages, skipping
// turns with unknown roles.
func historyMessages(history []Turn) []*ai.Message {
	messages := make([]*ai.Message, 0, len(history)+1)
	for _, t := range history {
		switch t.Role {
		case RoleUser:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(t.Content)))
		case RoleAssistant:
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(t.Content)))
		}
	}
	return messages
}
