// Package scheduler runs the watch-mode sweep: on a cron schedule it resets
// stale jobs and drives the queue's pending and retryable work through the
// processor again. Overlapping runs are skipped, not queued.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/models"
)

// sweepTimeout bounds one scheduled sweep end to end.
const sweepTimeout = 30 * time.Minute

// Sweep executes one retry pass and returns the post-run queue summary.
type Sweep func(ctx context.Context) (models.Summary, error)

// Scheduler triggers periodic retry sweeps over the job queue.
type Scheduler struct {
	sweep  Sweep
	cron   *cron.Cron
	logger arbor.ILogger

	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler around the given sweep function.
func New(sweep Sweep, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		sweep:  sweep,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Start registers the sweep on the given cron schedule (seconds field
// included) and begins the timer.
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		// Default: every 10 minutes
		schedule = "0 */10 * * * *"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Retry sweep scheduler started")

	return nil
}

// Stop halts the timer. A sweep already in flight finishes on its own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Retry sweep scheduler stopped")
}

// RunNow triggers an immediate sweep outside the schedule.
func (s *Scheduler) RunNow() {
	s.logger.Info().Msg("Triggering immediate retry sweep")
	go s.runSweep()
}

func (s *Scheduler) runSweep() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous sweep still running, skipping this trigger")
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	s.logger.Info().Msg("Starting scheduled retry sweep")

	summary, err := s.sweep(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled retry sweep failed")
		return
	}

	s.logger.Info().
		Int("total", summary.Total).
		Int("completed", summary.Completed).
		Int("errors", summary.Error).
		Float64("progress", summary.Progress).
		Msg("Scheduled retry sweep completed")
}
