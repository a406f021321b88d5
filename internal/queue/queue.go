package queue

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

// JobQueue owns the ordered job collection and its persisted snapshot.
//
// Every mutation goes through a queue method, runs under one mutex, and
// persists the full snapshot before returning. Callers never mutate job
// fields directly; duplicate URLs are allowed and resolve to the first
// occurrence on lookup.
type JobQueue struct {
	config *common.QueueConfig
	logger arbor.ILogger

	mu   sync.Mutex
	jobs []*models.Job
}

// New creates a queue rooted at the configured data directory, creating the
// input, output, and temp subdirectories.
func New(cfg *common.QueueConfig, logger arbor.ILogger) (*JobQueue, error) {
	for _, dir := range []string{cfg.InputDir(), cfg.OutputDir(), cfg.TempDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create queue directory %s: %w", dir, err)
		}
	}

	return &JobQueue{
		config: cfg,
		logger: logger,
	}, nil
}

// ImportCSV loads jobs from a CSV file. The url column is required; priority
// and category columns are optional. Rows are appended as pending without
// deduplication; nothing is appended when any row is invalid. Returns the
// number of jobs added.
func (q *JobQueue) ImportCSV(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to load CSV: %w", err)
	}

	urlCol, priorityCol, categoryCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "url":
			urlCol = i
		case "priority":
			priorityCol = i
		case "category":
			categoryCol = i
		}
	}
	if urlCol < 0 {
		return 0, &models.ValidationError{Field: "url", Message: "CSV is missing the required url column"}
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load CSV: %w", err)
	}

	jobs := make([]*models.Job, 0, len(rows))
	for i, row := range rows {
		url := cell(row, urlCol)
		if url == "" {
			return 0, &models.ValidationError{Field: "url", Message: fmt.Sprintf("row %d has an empty url", i+2)}
		}
		jobs = append(jobs, q.newJob(url, cell(row, priorityCol), cell(row, categoryCol)))
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.jobs = append(q.jobs, jobs...)
	if err := q.persistLocked(); err != nil {
		return 0, err
	}

	q.logger.Info().Int("added", len(jobs)).Str("path", path).Msg("Imported jobs from CSV")
	return len(jobs), nil
}

// AddJob appends a single pending job and persists.
func (q *JobQueue) AddJob(url, priority, category string) (*models.Job, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, &models.ValidationError{Field: "url", Message: "url cannot be empty"}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.newJob(url, priority, category)
	q.jobs = append(q.jobs, job)
	if err := q.persistLocked(); err != nil {
		return nil, err
	}

	q.logger.Debug().Str("url", url).Str("priority", job.Priority).Msg("Job added")
	return job, nil
}

// UpdateStatus is the single mutation entry point for job state. It stamps
// StartedAt on the processing transition and CompletedAt on terminal
// transitions, increments the retry count on error transitions, records the
// error message when given, and persists the snapshot on every call.
// Unknown URLs are a no-op.
func (q *JobQueue) UpdateStatus(url string, status models.JobStatus, errorMessage string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(url)
	if job == nil {
		q.logger.Warn().Str("url", url).Str("status", string(status)).Msg("Status update for unknown URL ignored")
		return nil
	}

	now := time.Now()
	job.Status = status

	switch status {
	case models.JobStatusProcessing:
		job.StartedAt = &now
	case models.JobStatusCompleted, models.JobStatusError, models.JobStatusSkipped:
		job.CompletedAt = &now
	}

	if status == models.JobStatusError {
		job.RetryCount++
	}
	if errorMessage != "" {
		job.ErrorMessage = errorMessage
	}

	if err := q.persistLocked(); err != nil {
		return err
	}

	q.logger.Debug().Str("url", url).Str("status", string(status)).Msg("Job status updated")
	return nil
}

// ResetJob returns a job to pending, clearing run timestamps and the error
// message. The retry count is kept so resets do not refill the retry budget.
// Unknown URLs are a no-op.
func (q *JobQueue) ResetJob(url string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(url)
	if job == nil {
		q.logger.Warn().Str("url", url).Msg("Reset for unknown URL ignored")
		return nil
	}

	q.resetLocked(job)
	if err := q.persistLocked(); err != nil {
		return err
	}

	q.logger.Debug().Str("url", url).Msg("Job reset to pending")
	return nil
}

// SkipJob marks a job skipped.
func (q *JobQueue) SkipJob(url string) error {
	return q.UpdateStatus(url, models.JobStatusSkipped, "")
}

// GetPending returns pending jobs in insertion order.
func (q *JobQueue) GetPending() []*models.Job {
	return q.GetByStatus(models.JobStatusPending)
}

// GetByStatus returns jobs with the given status in insertion order.
func (q *JobQueue) GetByStatus(status models.JobStatus) []*models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*models.Job
	for _, job := range q.jobs {
		if job.Status == status {
			out = append(out, job)
		}
	}
	return out
}

// GetRetryable returns errored jobs that still have retry budget, in
// insertion order.
func (q *JobQueue) GetRetryable() []*models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []*models.Job
	for _, job := range q.jobs {
		if job.IsRetryable() {
			out = append(out, job)
		}
	}
	return out
}

// Jobs returns every job in insertion order.
func (q *JobQueue) Jobs() []*models.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}

// GetJob looks up a job by URL.
func (q *JobQueue) GetJob(url string) (*models.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job := q.findLocked(url)
	return job, job != nil
}

// Summary computes per-status counts and completion progress.
func (q *JobQueue) Summary() models.Summary {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.summaryLocked()
}

// Persist writes the full snapshot to the fixed snapshot path.
func (q *JobQueue) Persist() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.persistLocked()
}

// Restore loads the snapshot from the fixed path, replacing the in-memory
// collection. A missing file returns (false, nil); an unreadable or corrupt
// snapshot is logged and reported as not loaded rather than failing, so a bad
// file never blocks a fresh start.
func (q *JobQueue) Restore() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	path := q.config.SnapshotPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		q.logger.Warn().Err(err).Str("path", path).Msg("Failed to load progress")
		return false, nil
	}

	var snapshot models.QueueSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		q.logger.Warn().Err(err).Str("path", path).Msg("Failed to load progress")
		return false, nil
	}

	q.jobs = snapshot.Jobs
	q.logger.Info().Int("jobs", len(q.jobs)).Str("path", path).Msg("Restored queue snapshot")
	return true, nil
}

// ResetStale returns every processing job to pending. Jobs orphaned by an
// interrupted run become eligible again on the next run.
func (q *JobQueue) ResetStale() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for _, job := range q.jobs {
		if job.Status == models.JobStatusProcessing {
			q.resetLocked(job)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}

	if err := q.persistLocked(); err != nil {
		return count, err
	}

	q.logger.Info().Int("count", count).Msg("Reset stale processing jobs")
	return count, nil
}

// ExportResultsCSV dumps the job table to a CSV file. An empty path writes a
// timestamped file under the output directory. Returns the path written.
func (q *JobQueue) ExportResultsCSV(path string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if path == "" {
		path = filepath.Join(q.config.OutputDir(), fmt.Sprintf("job_results_%s.csv", time.Now().Format("20060102_150405")))
	}

	file, err := os.Create(path)
	if err != nil {
		return "", &models.PersistenceError{Op: "create", Path: path, Err: err}
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"url", "priority", "category", "status", "created_at", "started_at", "completed_at", "error_message", "retry_count"}
	if err := writer.Write(header); err != nil {
		return "", &models.PersistenceError{Op: "write", Path: path, Err: err}
	}

	for _, job := range q.jobs {
		row := []string{
			job.URL,
			job.Priority,
			job.Category,
			string(job.Status),
			job.CreatedAt.Format(time.RFC3339),
			formatTimePtr(job.StartedAt),
			formatTimePtr(job.CompletedAt),
			job.ErrorMessage,
			strconv.Itoa(job.RetryCount),
		}
		if err := writer.Write(row); err != nil {
			return "", &models.PersistenceError{Op: "write", Path: path, Err: err}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", &models.PersistenceError{Op: "write", Path: path, Err: err}
	}

	q.logger.Info().Int("jobs", len(q.jobs)).Str("path", path).Msg("Exported job results CSV")
	return path, nil
}

// newJob applies the configured retry budget on top of the model defaults.
func (q *JobQueue) newJob(url, priority, category string) *models.Job {
	job := models.NewJob(url, priority, category)
	if q.config.MaxRetries > 0 {
		job.MaxRetries = q.config.MaxRetries
	}
	return job
}

func (q *JobQueue) findLocked(url string) *models.Job {
	for _, job := range q.jobs {
		if job.URL == url {
			return job
		}
	}
	return nil
}

func (q *JobQueue) resetLocked(job *models.Job) {
	job.Status = models.JobStatusPending
	job.StartedAt = nil
	job.CompletedAt = nil
	job.ErrorMessage = ""
}

func (q *JobQueue) summaryLocked() models.Summary {
	s := models.Summary{Total: len(q.jobs)}
	for _, job := range q.jobs {
		switch job.Status {
		case models.JobStatusPending:
			s.Pending++
		case models.JobStatusProcessing:
			s.Processing++
		case models.JobStatusCompleted:
			s.Completed++
		case models.JobStatusError:
			s.Error++
		case models.JobStatusSkipped:
			s.Skipped++
		}
	}
	if s.Total > 0 {
		s.Progress = math.Round(float64(s.Completed)/float64(s.Total)*100*100) / 100
	}
	return s
}

// persistLocked writes the snapshot document. Callers hold the mutex.
func (q *JobQueue) persistLocked() error {
	jobs := q.jobs
	if jobs == nil {
		jobs = []*models.Job{}
	}

	snapshot := models.QueueSnapshot{
		Jobs:        jobs,
		Summary:     q.summaryLocked(),
		LastUpdated: time.Now(),
	}

	path := q.config.SnapshotPath()
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return &models.PersistenceError{Op: "encode", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &models.PersistenceError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// cell returns the trimmed value at idx, tolerating short rows and absent
// columns (idx < 0).
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
