package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

// ErrNoJobs reports an empty work set: nothing pending, nothing retryable.
var ErrNoJobs = errors.New("no jobs to process")

// Operation is the per-URL work a run executes. Implementations must honor
// ctx cancellation; the processor only stops dispatching, it never kills an
// in-flight operation.
type Operation func(ctx context.Context, url string) error

// Queue is the job source and status sink the processor drives. Satisfied by
// queue.JobQueue.
type Queue interface {
	GetPending() []*models.Job
	GetRetryable() []*models.Job
	UpdateStatus(url string, status models.JobStatus, errorMessage string) error
	ResetStale() (int, error)
	Summary() models.Summary
}

// jobResult carries one job's outcome across goroutines.
type jobResult struct {
	url string
	err error
}

// JobProcessor executes the queue's work set through an operation with a
// bound on simultaneously in-flight operations.
type JobProcessor struct {
	maxConcurrent int
	logger        arbor.ILogger
}

// New creates a processor with the given concurrency bound (floor 1).
func New(maxConcurrent int, logger arbor.ILogger) *JobProcessor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &JobProcessor{
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// Run executes every pending and retryable job exactly once. Each job
// transitions to processing, runs the operation, and lands on completed or
// error; one job's failure never aborts its siblings, and no retries happen
// within a single run (an errored job becomes eligible again on the next Run
// while under its retry budget). parallel=false runs jobs strictly in
// work-set order; parallel=true runs up to the concurrency bound at once.
// Returns ErrNoJobs when the work set is empty, ctx.Err() when cancelled
// mid-run, and the post-run queue summary in every non-empty case.
func (p *JobProcessor) Run(ctx context.Context, queue Queue, operation Operation, parallel bool) (models.Summary, error) {
	workSet := buildWorkSet(queue)
	if len(workSet) == 0 {
		p.logger.Info().Msg("No jobs to process")
		return models.Summary{}, ErrNoJobs
	}

	p.logger.Info().
		Int("jobs", len(workSet)).
		Bool("parallel", parallel).
		Int("max_concurrent", p.maxConcurrent).
		Msg("Processing work set")

	var runErr error
	if parallel {
		runErr = p.runParallel(ctx, queue, operation, workSet)
	} else {
		runErr = p.runSequential(ctx, queue, operation, workSet)
	}

	summary := queue.Summary()
	p.logger.Info().
		Int("completed", summary.Completed).
		Int("errors", summary.Error).
		Float64("progress", summary.Progress).
		Msg("Run finished")

	return summary, runErr
}

// Resume resets stale processing jobs left by an interrupted run, then
// executes the work set.
func (p *JobProcessor) Resume(ctx context.Context, queue Queue, operation Operation, parallel bool) (models.Summary, error) {
	reset, err := queue.ResetStale()
	if err != nil {
		return models.Summary{}, fmt.Errorf("failed to reset stale jobs: %w", err)
	}
	if reset > 0 {
		p.logger.Info().Int("reset", reset).Msg("Requeued stale processing jobs")
	}
	return p.Run(ctx, queue, operation, parallel)
}

// buildWorkSet joins pending and retryable jobs, deduplicated by URL with
// the first occurrence winning. A URL eligible through both lists runs once.
func buildWorkSet(queue Queue) []*models.Job {
	pending := queue.GetPending()
	retryable := queue.GetRetryable()

	seen := make(map[string]struct{}, len(pending)+len(retryable))
	workSet := make([]*models.Job, 0, len(pending)+len(retryable))
	for _, list := range [][]*models.Job{pending, retryable} {
		for _, job := range list {
			if _, ok := seen[job.URL]; ok {
				continue
			}
			seen[job.URL] = struct{}{}
			workSet = append(workSet, job)
		}
	}
	return workSet
}

func (p *JobProcessor) runSequential(ctx context.Context, queue Queue, operation Operation, workSet []*models.Job) error {
	for _, job := range workSet {
		select {
		case <-ctx.Done():
			p.logger.Warn().Err(ctx.Err()).Msg("Run cancelled; remaining jobs left for the next resume")
			return ctx.Err()
		default:
		}

		if result := p.processJob(ctx, queue, operation, job.URL); result.err != nil {
			p.logger.Warn().Str("url", result.url).Err(result.err).Msg("Job failed")
		}
	}
	return nil
}

func (p *JobProcessor) runParallel(ctx context.Context, queue Queue, operation Operation, workSet []*models.Job) error {
	semaphore := make(chan struct{}, p.maxConcurrent)
	results := make(chan jobResult, len(workSet))
	var wg sync.WaitGroup

	var cancelled error
	for _, job := range workSet {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
		case semaphore <- struct{}{}:
		}
		if cancelled != nil {
			p.logger.Warn().Err(cancelled).Msg("Run cancelled; remaining jobs left for the next resume")
			break
		}

		url := job.URL
		wg.Add(1)
		common.SafeGo(p.logger, "processJob", func() {
			defer wg.Done()
			defer func() { <-semaphore }()
			results <- p.processJob(ctx, queue, operation, url)
		})
	}

	wg.Wait()
	close(results)

	for result := range results {
		if result.err != nil {
			p.logger.Warn().Str("url", result.url).Err(result.err).Msg("Job failed")
		}
	}
	return cancelled
}

// processJob runs one job through its status transitions. Bookkeeping
// failures are logged rather than propagated; the operation outcome decides
// the terminal status.
func (p *JobProcessor) processJob(ctx context.Context, queue Queue, operation Operation, url string) jobResult {
	if err := queue.UpdateStatus(url, models.JobStatusProcessing, ""); err != nil {
		p.logger.Warn().Str("url", url).Err(err).Msg("Failed to mark job processing")
	}

	p.logger.Info().Str("url", url).Msg("Processing job")

	if err := invokeOperation(ctx, operation, url); err != nil {
		if updateErr := queue.UpdateStatus(url, models.JobStatusError, err.Error()); updateErr != nil {
			p.logger.Warn().Str("url", url).Err(updateErr).Msg("Failed to record job error")
		}
		return jobResult{url: url, err: err}
	}

	if err := queue.UpdateStatus(url, models.JobStatusCompleted, ""); err != nil {
		p.logger.Warn().Str("url", url).Err(err).Msg("Failed to mark job completed")
	}
	return jobResult{url: url}
}

// invokeOperation converts an operation panic into an error so one bad job
// cannot take down the run.
func invokeOperation(ctx context.Context, operation Operation, url string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return operation(ctx, url)
}
