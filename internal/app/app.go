// Package app wires the analysis pipeline together: queue, processor,
// extractor, analysis client, analyzer, result archive, and report exporter.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/processor"
	"github.com/ternarybob/scrutor/internal/queue"
	"github.com/ternarybob/scrutor/internal/services/analyzer"
	"github.com/ternarybob/scrutor/internal/services/extractor"
	"github.com/ternarybob/scrutor/internal/services/llm"
	"github.com/ternarybob/scrutor/internal/services/report"
	"github.com/ternarybob/scrutor/internal/services/scheduler"
	badgerstorage "github.com/ternarybob/scrutor/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Queue     *queue.JobQueue
	Processor *processor.JobProcessor
	Extractor interfaces.Extractor
	Client    *llm.AnalysisClient
	Analyzer  *analyzer.Service
	Exporter  interfaces.Exporter
	Store     interfaces.ResultStore
	Audit     llm.AuditLogger
	Scheduler *scheduler.Scheduler

	db *badgerstorage.BadgerDB

	extractorMu      sync.Mutex
	extractorStarted bool
}

// New builds the application. The queue restores its last snapshot; the
// browser is not launched until the first extraction needs it.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	q, err := queue.New(&cfg.Queue, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job queue: %w", err)
	}
	if loaded, err := q.Restore(); err != nil {
		return nil, fmt.Errorf("failed to restore queue snapshot: %w", err)
	} else if loaded {
		summary := q.Summary()
		logger.Info().
			Int("total", summary.Total).
			Int("pending", summary.Pending).
			Int("completed", summary.Completed).
			Msg("Restored queue snapshot")
	}
	a.Queue = q

	a.Processor = processor.New(cfg.Processor.MaxConcurrent, logger)

	db, err := badgerstorage.NewBadgerDB(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open result archive: %w", err)
	}
	a.db = db
	a.Store = badgerstorage.NewResultStore(db, logger)

	client, err := llm.NewAnalysisClient(&cfg.LLM, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize analysis client: %w", err)
	}
	a.Client = client

	logPrompts := cfg.Logging.Level == "debug"
	a.Audit = llm.NewBadgerAuditLogger(db.Store(), logPrompts, logger)
	client.SetAuditor(a.Audit)

	a.Analyzer = analyzer.New(client, logger)

	exporter, err := report.New(&cfg.Report, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize report exporter: %w", err)
	}
	a.Exporter = exporter

	a.Extractor = extractor.New(&cfg.Extractor, logger)

	a.Scheduler = scheduler.New(a.retrySweep, logger)

	logger.Info().Msg("Application initialized")
	return a, nil
}

// ensureExtractor launches the shared browser on first use.
func (a *App) ensureExtractor(ctx context.Context) error {
	a.extractorMu.Lock()
	defer a.extractorMu.Unlock()

	if a.extractorStarted {
		return nil
	}

	svc, ok := a.Extractor.(*extractor.Service)
	if !ok {
		// Injected extractor (tests); assume it is ready.
		a.extractorStarted = true
		return nil
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	a.extractorStarted = true
	return nil
}

// AnalyzeURL runs the full pipeline for one URL: extract, archive the
// content, analyze, archive the result, export reports.
func (a *App) AnalyzeURL(ctx context.Context, url string) (*models.PageAnalysis, error) {
	if err := a.ensureExtractor(ctx); err != nil {
		return nil, err
	}

	content, err := a.Extractor.ExtractContent(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := a.Store.SaveContent(ctx, content); err != nil {
		a.Logger.Warn().Str("url", url).Err(err).Msg("Failed to archive extracted content")
	}

	analysis, err := a.Analyzer.Analyze(ctx, content)
	if err != nil {
		return nil, err
	}

	if err := a.Store.SaveAnalysis(ctx, analysis); err != nil {
		a.Logger.Warn().Str("url", url).Err(err).Msg("Failed to archive analysis")
	}

	paths, err := a.Exporter.Export(ctx, analysis, content)
	if err != nil {
		a.Logger.Warn().Str("url", url).Err(err).Msg("Failed to export reports")
	} else {
		a.Logger.Info().Str("url", url).Strs("reports", paths).Msg("Reports written")
	}

	return analysis, nil
}

// Operation adapts AnalyzeURL to the processor's per-job contract.
func (a *App) Operation() processor.Operation {
	return func(ctx context.Context, url string) error {
		_, err := a.AnalyzeURL(ctx, url)
		return err
	}
}

// RunBatch drives the queue's work set through the pipeline. resume resets
// stale processing jobs from an interrupted run first.
func (a *App) RunBatch(ctx context.Context, resume bool) (models.Summary, error) {
	parallel := a.Config.Processor.Parallel

	var summary models.Summary
	var err error
	if resume {
		summary, err = a.Processor.Resume(ctx, a.Queue, a.Operation(), parallel)
	} else {
		summary, err = a.Processor.Run(ctx, a.Queue, a.Operation(), parallel)
	}
	if err != nil {
		return summary, err
	}

	a.writeRunArtifacts(ctx)
	return summary, nil
}

// retrySweep is the scheduler hook: requeue stale jobs, run the work set,
// treat an empty work set as a quiet pass.
func (a *App) retrySweep(ctx context.Context) (models.Summary, error) {
	summary, err := a.Processor.Resume(ctx, a.Queue, a.Operation(), a.Config.Processor.Parallel)
	if errors.Is(err, processor.ErrNoJobs) {
		return a.Queue.Summary(), nil
	}
	if err != nil {
		return summary, err
	}
	a.writeRunArtifacts(ctx)
	return summary, nil
}

// writeRunArtifacts renders the cross-run summary report, the combined JSON
// dump, and the results CSV from archived completed jobs. Failures here are
// logged, never fatal: the per-URL reports are already on disk.
func (a *App) writeRunArtifacts(ctx context.Context) {
	completed := a.Queue.GetByStatus(models.JobStatusCompleted)
	if len(completed) == 0 {
		return
	}

	results := make([]*models.PageAnalysis, 0, len(completed))
	contents := make(map[string]*models.PageContent, len(completed))
	for _, job := range completed {
		analysis, err := a.Store.GetAnalysisByURL(ctx, job.URL)
		if err != nil {
			a.Logger.Warn().Str("url", job.URL).Err(err).Msg("Completed job has no archived analysis")
			continue
		}
		results = append(results, analysis)
		if content, err := a.Store.GetContent(ctx, job.URL); err == nil {
			contents[job.URL] = content
		}
	}
	if len(results) == 0 {
		return
	}

	exporter, ok := a.Exporter.(*report.Service)
	if !ok {
		return
	}

	if path, err := exporter.WriteSummaryReport(results, contents); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to write summary report")
	} else {
		a.Logger.Info().Str("path", path).Msg("Summary report written")
	}

	if path, err := exporter.WriteResultData(results); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to write result data")
	} else {
		a.Logger.Info().Str("path", path).Msg("Result data written")
	}

	if path, err := a.Queue.ExportResultsCSV(""); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to export results CSV")
	} else {
		a.Logger.Info().Str("path", path).Msg("Results CSV written")
	}
}

// Close shuts components down in reverse dependency order.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	if a.Extractor != nil {
		if err := a.Extractor.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close extractor")
		}
	}

	if a.Client != nil {
		if err := a.Client.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close analysis client")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close result archive")
			return err
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
