package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/rag"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the retrieval evaluation suite against the corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEval(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

func runEval(ctx context.Context) error {
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

	summary := rag.RunEval(svc.retriever, rag.DefaultEvalCases())
	for _, res := range summary.Results {
		mark := "PASS"
		if !res.Passed {
			mark = "FAIL"
		}
		fmt.Printf("[%s] %s\n", mark, res.Question)
		fmt.Printf("       expected: [%s]\n", strings.Join(res.ExpectedSources, ", "))
		fmt.Printf("       actual:   [%s]\n", strings.Join(res.ActualSources, ", "))
	}
	fmt.Printf("\n%d/%d passed\n", summary.PassedTests, summary.TotalTests)

	if summary.PassedTests != summary.TotalTests {
		return fmt.Errorf("%d evaluation case(s) failed", summary.TotalTests-summary.PassedTests)
	}
	return nil
}
