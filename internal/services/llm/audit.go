package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// CallRecord is one provider call in the usage audit trail.
type CallRecord struct {
	ID           string    `json:"id" badgerhold:"key"`
	Timestamp    time.Time `json:"timestamp"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model"`
	Prompt       string    `json:"prompt,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Cost         float64   `json:"cost"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
}

// CallTotals aggregates the audit trail for usage reporting.
type CallTotals struct {
	Calls        int     `json:"calls"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// AuditLogger defines the interface for provider call auditing
type AuditLogger interface {
	LogCall(record CallRecord) error
	GetRecords(limit int) ([]CallRecord, error)
	Totals() (CallTotals, error)
	ExportToJSON(w io.Writer) error
	Close() error
}

// maxAuditPromptLen bounds the prompt text stored per record
const maxAuditPromptLen = 200

// BadgerAuditLogger implements AuditLogger on a badgerhold store
type BadgerAuditLogger struct {
	store      *badgerhold.Store
	logPrompts bool
	logger     arbor.ILogger
}

// NewBadgerAuditLogger creates an audit logger backed by the given store.
// The store is owned by the caller; Close here is a no-op.
func NewBadgerAuditLogger(store *badgerhold.Store, logPrompts bool, logger arbor.ILogger) *BadgerAuditLogger {
	return &BadgerAuditLogger{
		store:      store,
		logPrompts: logPrompts,
		logger:     logger,
	}
}

// LogCall persists one call record. Missing IDs and timestamps are filled in.
func (l *BadgerAuditLogger) LogCall(record CallRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if !l.logPrompts {
		record.Prompt = ""
	} else if len(record.Prompt) > maxAuditPromptLen {
		record.Prompt = record.Prompt[:maxAuditPromptLen]
	}

	l.logger.Debug().
		Str("model", record.Model).
		Str("success", fmt.Sprintf("%v", record.Success)).
		Int64("duration_ms", record.DurationMs).
		Msg("Logging analysis call")

	if err := l.store.Upsert(record.ID, &record); err != nil {
		l.logger.Error().
			Err(err).
			Str("model", record.Model).
			Msg("Failed to insert audit record")
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	return nil
}

// GetRecords retrieves recent call records, newest first, up to limit.
// A non-positive limit returns all records.
func (l *BadgerAuditLogger) GetRecords(limit int) ([]CallRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []CallRecord
	if err := l.store.Find(&records, query); err != nil {
		l.logger.Error().Err(err).Int("limit", limit).Msg("Failed to query audit records")
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}

	l.logger.Debug().Int("count", len(records)).Int("limit", limit).Msg("Retrieved audit records")
	return records, nil
}

// Totals sums the full audit trail.
func (l *BadgerAuditLogger) Totals() (CallTotals, error) {
	var records []CallRecord
	if err := l.store.Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return CallTotals{}, fmt.Errorf("failed to query audit records: %w", err)
	}

	var totals CallTotals
	for _, record := range records {
		totals.Calls++
		if !record.Success {
			totals.Failures++
		}
		totals.InputTokens += record.InputTokens
		totals.OutputTokens += record.OutputTokens
		totals.Cost += record.Cost
	}

	return totals, nil
}

// ExportToJSON exports all call records to JSON format, oldest first.
func (l *BadgerAuditLogger) ExportToJSON(w io.Writer) error {
	var records []CallRecord
	if err := l.store.Find(&records, badgerhold.Where("ID").Ne("").SortBy("Timestamp")); err != nil {
		l.logger.Error().Err(err).Msg("Failed to query audit records for export")
		return fmt.Errorf("failed to query audit records for export: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(records); err != nil {
		l.logger.Error().Err(err).Msg("Failed to encode audit records to JSON")
		return fmt.Errorf("failed to encode audit records to JSON: %w", err)
	}

	l.logger.Info().Int("count", len(records)).Msg("Exported audit records to JSON")
	return nil
}

// Close cleans up resources (no-op, the store is shared)
func (l *BadgerAuditLogger) Close() error {
	return nil
}

// NullAuditLogger is a no-op implementation of AuditLogger used when auditing is disabled
type NullAuditLogger struct{}

// NewNullAuditLogger creates a new null audit logger
func NewNullAuditLogger() *NullAuditLogger {
	return &NullAuditLogger{}
}

// LogCall does nothing (no-op)
func (l *NullAuditLogger) LogCall(record CallRecord) error {
	return nil
}

// GetRecords returns an empty slice (no-op)
func (l *NullAuditLogger) GetRecords(limit int) ([]CallRecord, error) {
	return []CallRecord{}, nil
}

// Totals returns zero totals (no-op)
func (l *NullAuditLogger) Totals() (CallTotals, error) {
	return CallTotals{}, nil
}

// ExportToJSON writes empty JSON array (no-op)
func (l *NullAuditLogger) ExportToJSON(w io.Writer) error {
	_, err := w.Write([]byte("[]"))
	return err
}

// Close does nothing (no-op)
func (l *NullAuditLogger) Close() error {
	return nil
}
