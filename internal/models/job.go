package models

import "time"

// JobStatus represents the lifecycle state of an analysis job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
	JobStatusSkipped    JobStatus = "skipped"
)

// Job priority levels
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// DefaultMaxRetries is the retry budget assigned to new jobs
const DefaultMaxRetries = 3

// IsTerminal reports whether the status is a terminal state
// (completed, error, skipped)
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusError, JobStatusSkipped:
		return true
	}
	return false
}

// IsValid reports whether s is a known status value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusError, JobStatusSkipped:
		return true
	}
	return false
}

// Job represents one URL's unit of analysis work.
//
// Lifecycle:
//   - Created pending when imported or added
//   - Mutated only through the queue's status-update operation
//   - Never deleted; reset to pending or left in a terminal status
//
// Timestamp invariants:
//   - StartedAt set only on transition into processing
//   - CompletedAt set only on transition into a terminal status
//   - RetryCount increments only on transition into error
type Job struct {
	URL          string     `json:"url"`      // Unique key within the queue
	Priority     string     `json:"priority"` // high, medium, low
	Category     string     `json:"category,omitempty"`
	Status       JobStatus  `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
}

// NewJob constructs a pending job with defaults applied
func NewJob(url, priority, category string) *Job {
	if priority == "" {
		priority = PriorityMedium
	}
	return &Job{
		URL:        url,
		Priority:   priority,
		Category:   category,
		Status:     JobStatusPending,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// IsRetryable reports whether the job failed but still has retry budget
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusError && j.RetryCount < j.MaxRetries
}

// Summary aggregates job counts per status with completion progress
type Summary struct {
	Total      int     `json:"total"`
	Pending    int     `json:"pending"`
	Processing int     `json:"processing"`
	Completed  int     `json:"completed"`
	Error      int     `json:"error"`
	Skipped    int     `json:"skipped"`
	Progress   float64 `json:"progress"` // completed/total*100, 0 when total is 0
}

// QueueSnapshot is the persisted form of the queue: the full job list in
// insertion order, a computed summary, and the time of the last mutation.
// Loading this document is the sole resume mechanism.
type QueueSnapshot struct {
	Jobs        []*Job    `json:"jobs"`
	Summary     Summary   `json:"summary"`
	LastUpdated time.Time `json:"last_updated"`
}
