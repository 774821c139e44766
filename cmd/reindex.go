package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/answerdesk/answerdesk/internal/config"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the document index from the docs directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReindex(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(ctx context.Context) error {
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

	if !svc.retriever.Reindex() {
		return fmt.Errorf("reindexing %s failed", cfg.DocsDir)
	}
	status := svc.retriever.Status()
	fmt.Printf("indexed %d chunks from %d document(s)\n", status.ChunkCount, len(status.Documents))
	fmt.Printf("documents: [%s]\n", strings.Join(status.Documents, ", "))
	return nil
}
