// Package cmd wires the command line interface.
package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "answerdesk",
	Short: "Documentation question answering service",
	Long: `AnswerDesk answers customer support questions from a markdown
documentation corpus. It retrieves the most relevant passages with a
lexical scorer and streams an answer grounded in them, either through
a Gemini backend or a local fallback generator.

Run "answerdesk serve" to start the HTTP API, or "answerdesk ask" for
a one-shot question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
