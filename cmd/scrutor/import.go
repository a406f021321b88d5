package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/queue"
)

var importCmd = &cobra.Command{
	Use:   "import [csv]",
	Short: "Import URLs from a CSV file into the job queue",
	Long: `Imports jobs from a CSV file with a required url column and optional
priority and category columns. Imported jobs start pending; existing jobs
are kept and duplicates are not filtered.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	q, err := queue.New(&config.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to open job queue: %w", err)
	}
	if _, err := q.Restore(); err != nil {
		return fmt.Errorf("failed to restore queue snapshot: %w", err)
	}

	added, err := q.ImportCSV(args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d jobs from %s\n", added, args[0])
	printSummary(q.Summary())
	return nil
}
