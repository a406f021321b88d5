package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/queue"
)

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Add a single URL to the job queue",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var (
	addPriority string
	addCategory string
)

func init() {
	addCmd.Flags().StringVar(&addPriority, "priority", "", "Job priority: high, medium, low (default medium)")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Job category label")
}

func runAdd(cmd *cobra.Command, args []string) error {
	q, err := queue.New(&config.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to open job queue: %w", err)
	}
	if _, err := q.Restore(); err != nil {
		return fmt.Errorf("failed to restore queue snapshot: %w", err)
	}

	job, err := q.AddJob(args[0], addPriority, addCategory)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	fmt.Printf("Added %s (priority %s) as pending\n", job.URL, job.Priority)
	return nil
}
