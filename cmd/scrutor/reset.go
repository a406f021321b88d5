package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/queue"
)

var resetCmd = &cobra.Command{
	Use:   "reset [url]",
	Short: "Reset jobs back to pending",
	Long: `Resets a single job by URL, all errored jobs (--errors), jobs left in
processing by an interrupted run (--stale), or every job (--all).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReset,
}

var (
	resetErrors bool
	resetStale  bool
	resetAll    bool
)

func init() {
	resetCmd.Flags().BoolVar(&resetErrors, "errors", false, "Reset all errored jobs to pending")
	resetCmd.Flags().BoolVar(&resetStale, "stale", false, "Reset jobs stuck in processing to pending")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Reset every job to pending")
}

func runReset(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !resetErrors && !resetStale && !resetAll {
		return fmt.Errorf("specify a URL, --errors, --stale, or --all")
	}

	q, err := queue.New(&config.Queue, logger)
	if err != nil {
		return fmt.Errorf("failed to open job queue: %w", err)
	}
	if _, err := q.Restore(); err != nil {
		return fmt.Errorf("failed to restore queue snapshot: %w", err)
	}

	if len(args) > 0 {
		if err := q.ResetJob(args[0]); err != nil {
			return fmt.Errorf("failed to reset job: %w", err)
		}
		fmt.Printf("Reset %s to pending\n", args[0])
		return nil
	}

	if resetAll {
		jobs := q.Jobs()
		for _, job := range jobs {
			if err := q.ResetJob(job.URL); err != nil {
				return fmt.Errorf("failed to reset %s: %w", job.URL, err)
			}
		}
		fmt.Printf("Reset %d jobs to pending\n", len(jobs))
		return nil
	}

	if resetErrors {
		failed := q.GetByStatus(models.JobStatusError)
		for _, job := range failed {
			if err := q.ResetJob(job.URL); err != nil {
				return fmt.Errorf("failed to reset %s: %w", job.URL, err)
			}
		}
		fmt.Printf("Reset %d errored jobs to pending\n", len(failed))
	}

	if resetStale {
		reset, err := q.ResetStale()
		if err != nil {
			return fmt.Errorf("failed to reset stale jobs: %w", err)
		}
		fmt.Printf("Reset %d stale processing jobs to pending\n", reset)
	}

	return nil
}
