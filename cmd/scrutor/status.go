package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/queue"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show job queue progress",
	RunE:  runStatus,
}

var statusShowErrors bool

func init() {
	statusCmd.Flags().BoolVar(&statusShowErrors, "errors", false, "List failed jobs with their error messages")
}

func runStatus(cmd *cobra.Command, args []string) error {
	q, err := queue.New(&config.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to open job queue: %w", err)
	}

	loaded, err := q.Restore()
	if err != nil {
		return fmt.Errorf("failed to restore queue snapshot: %w", err)
	}
	if !loaded {
		fmt.Println("No job progress found")
		return nil
	}

	printSummary(q.Summary())

	if statusShowErrors {
		failed := q.GetByStatus(models.JobStatusError)
		if len(failed) == 0 {
			fmt.Println("\nNo failed jobs")
			return nil
		}
		fmt.Printf("\nFailed jobs (%d):\n", len(failed))
		for _, job := range failed {
			fmt.Printf("  %s  retries=%d/%d  %s\n", job.URL, job.RetryCount, job.MaxRetries, job.ErrorMessage)
		}
	}

	return nil
}

func printSummary(summary models.Summary) {
	fmt.Printf("\nJob queue: %d total\n", summary.Total)
	fmt.Printf("  pending:    %d\n", summary.Pending)
	fmt.Printf("  processing: %d\n", summary.Processing)
	fmt.Printf("  completed:  %d\n", summary.Completed)
	fmt.Printf("  error:      %d\n", summary.Error)
	fmt.Printf("  skipped:    %d\n", summary.Skipped)
	fmt.Printf("  progress:   %.1f%%\n", summary.Progress)
}
