package models

import (
	"encoding/json"
	"testing"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusProcessing, false},
		{JobStatusCompleted, true},
		{JobStatusError, true},
		{JobStatusSkipped, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestJobStatus_IsValid(t *testing.T) {
	valid := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusError, JobStatusSkipped}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", s)
		}
	}

	if JobStatus("running").IsValid() {
		t.Error("IsValid(running) = true, want false")
	}
	if JobStatus("").IsValid() {
		t.Error("IsValid(empty) = true, want false")
	}
}

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob("https://example.com", "", "")

	if job.Status != JobStatusPending {
		t.Errorf("Status = %s, want %s", job.Status, JobStatusPending)
	}
	if job.Priority != PriorityMedium {
		t.Errorf("Priority = %s, want %s", job.Priority, PriorityMedium)
	}
	if job.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", job.MaxRetries, DefaultMaxRetries)
	}
	if job.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", job.RetryCount)
	}
	if job.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if job.StartedAt != nil || job.CompletedAt != nil {
		t.Error("timestamps should be nil on a new job")
	}
}

func TestNewJob_ExplicitFields(t *testing.T) {
	job := NewJob("https://example.com/pricing", PriorityHigh, "saas")

	if job.Priority != PriorityHigh {
		t.Errorf("Priority = %s, want %s", job.Priority, PriorityHigh)
	}
	if job.Category != "saas" {
		t.Errorf("Category = %s, want saas", job.Category)
	}
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name       string
		status     JobStatus
		retryCount int
		maxRetries int
		want       bool
	}{
		{"error under budget", JobStatusError, 1, 3, true},
		{"error at budget", JobStatusError, 3, 3, false},
		{"error over budget", JobStatusError, 4, 3, false},
		{"pending never retryable", JobStatusPending, 0, 3, false},
		{"completed never retryable", JobStatusCompleted, 1, 3, false},
		{"skipped never retryable", JobStatusSkipped, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &Job{Status: tt.status, RetryCount: tt.retryCount, MaxRetries: tt.maxRetries}
			if got := job.IsRetryable(); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_JSONFieldNames(t *testing.T) {
	job := NewJob("https://example.com", PriorityLow, "retail")
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, key := range []string{"url", "priority", "category", "status", "created_at", "retry_count", "max_retries"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("serialized job missing field %q", key)
		}
	}
	if fields["status"] != "pending" {
		t.Errorf("status serialized as %v, want pending", fields["status"])
	}

	// Unset optional timestamps stay out of the document
	if _, ok := fields["started_at"]; ok {
		t.Error("started_at should be omitted when nil")
	}
}
