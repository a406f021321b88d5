package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/app"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/processor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the queue's pending and retryable jobs",
	Long: `Runs every pending and retryable job through the extraction and
analysis pipeline. With --resume, jobs left in processing by an interrupted
run are reset to pending first. Interrupting the run leaves unfinished jobs
for the next resume.`,
	RunE: runRun,
}

var (
	runParallel    bool
	runConcurrency int
	runResume      bool
)

func init() {
	runCmd.Flags().BoolVar(&runParallel, "parallel", false, "Run jobs concurrently up to the concurrency bound")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "Maximum simultaneously in-flight jobs (overrides config)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "Reset stale processing jobs and continue from the last snapshot")
}

func runRun(cmd *cobra.Command, args []string) error {
	common.ApplyFlagOverrides(config, runConcurrency, runParallel, "")

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := application.RunBatch(ctx, runResume)
	switch {
	case errors.Is(err, processor.ErrNoJobs):
		fmt.Println("No jobs to process")
		return nil
	case errors.Is(err, context.Canceled):
		logger.Warn().Msg("Run interrupted; resume with: scrutor run --resume")
		printSummary(summary)
		return nil
	case err != nil:
		return fmt.Errorf("run failed: %w", err)
	}

	printSummary(summary)
	return nil
}
