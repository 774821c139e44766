package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/generate"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAsk(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(ctx context.Context, question string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger(cfg)
	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}

	citations := svc.retriever.Citations(question)

	var failure string
	for ev := range svc.generator.Stream(ctx, question, citations, nil) {
		switch ev.Type {
		case generate.EventChunk:
			fmt.Print(ev.Content)
		case generate.EventEnd:
			fmt.Println()
		case generate.EventError:
			failure = ev.Message
		}
	}
	if failure != "" {
		return fmt.Errorf("generation failed: %s", failure)
	}

	if len(citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range citations {
			fmt.Printf("  %s §%d (score %.2f)\n", c.Filename, c.ParagraphIndex, c.Score)
		}
	}
	return nil
}
