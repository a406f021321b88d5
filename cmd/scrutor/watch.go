package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/app"
	"github.com/ternarybob/scrutor/internal/common"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run retry sweeps on the configured schedule until interrupted",
	Long: `Starts the cron-driven sweep: on each trigger, stale processing jobs
are reset and every pending and retryable job is run through the pipeline.`,
	RunE: runWatch,
}

var (
	watchParallel    bool
	watchConcurrency int
)

func init() {
	watchCmd.Flags().BoolVar(&watchParallel, "parallel", false, "Run jobs concurrently up to the concurrency bound")
	watchCmd.Flags().IntVar(&watchConcurrency, "concurrency", 0, "Maximum simultaneously in-flight jobs (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	common.ApplyFlagOverrides(config, watchConcurrency, watchParallel, "")

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	if err := application.Scheduler.Start(config.Scheduler.Schedule); err != nil {
		return fmt.Errorf("failed to start retry scheduler: %w", err)
	}
	application.Scheduler.RunNow()

	fmt.Printf("Watching on schedule %q - Press Ctrl+C to stop\n", config.Scheduler.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	return nil
}
