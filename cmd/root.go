// Package cmd implements the newsrag command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "newsrag",
	Short: "newsrag - retrieval-augmented news chat service",
	Long: `newsrag answers questions about indexed news articles.

It embeds each question, retrieves the most relevant article chunks from
PostgreSQL/pgvector, and generates a grounded answer with cited sources.
Run 'newsrag serve' to start the HTTP API or 'newsrag ingest' to index
articles.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
