package cmd

import (
	"context"
	"fmt"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/docstore"
	"github.com/answerdesk/answerdesk/internal/generate"
	"github.com/answerdesk/answerdesk/internal/log"
	"github.com/answerdesk/answerdesk/internal/rag"
)

// services bundles the core collaborators shared by serve, ask, and
// eval.
type services struct {
	store     *docstore.Store
	retriever *rag.Retriever
	generator generate.Generator
}

// buildServices constructs the document store, loads the index, and
// selects the generation strategy: backend-delegated when a Gemini
// credential is present, local fallback otherwise.
func buildServices(ctx context.Context, cfg *config.Config, logger log.Logger) (*services, error) {
	store, err := docstore.New(cfg.DocsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}

	index := rag.NewIndex(store, logger)
	if err := index.Load(); err != nil {
		// A missing or unreadable corpus leaves the index unbuilt but
		// the service still runs; /api/index reports not ready.
		logger.Warn("index not built", "error", err)
	}
	retriever := rag.NewRetriever(index, rag.NewScorer(cfg.ImportantTerms()), logger)

	var generator generate.Generator
	if cfg.BackendConfigured() {
		backend, err := generate.NewBackend(ctx, generate.BackendConfig{
			ModelName: cfg.ModelName,
			Refusal:   cfg.RefusalAnswer,
			MaxTokens: cfg.MaxTokens,
			RPS:       float64(cfg.BackendRPS),
			Burst:     cfg.BackendBurst,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing generation backend: %w", err)
		}
		logger.Info("generation backend ready", "model", cfg.ModelName)
		generator = backend
	} else {
		logger.Info("no backend credential found, using local fallback generator")
		generator = generate.NewMock(cfg.MockDelay(), cfg.RefusalAnswer, logger)
	}

	return &services{store: store, retriever: retriever, generator: generator}, nil
}

func newLogger(cfg *config.Config) log.Logger {
	return log.New(log.Config{JSON: cfg.LogJSON})
}
