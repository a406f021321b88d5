package queue

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

func newTestQueue(t *testing.T) *JobQueue {
	t.Helper()

	cfg := &common.QueueConfig{DataDir: t.TempDir(), MaxRetries: 3}
	q, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	return q
}

func writeCSV(t *testing.T, rows ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "urls.csv")
	content := ""
	for _, row := range rows {
		content += row + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_CreatesDataDirectories(t *testing.T) {
	cfg := &common.QueueConfig{DataDir: filepath.Join(t.TempDir(), "data"), MaxRetries: 3}

	_, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)

	for _, dir := range []string{cfg.InputDir(), cfg.OutputDir(), cfg.TempDir()} {
		info, statErr := os.Stat(dir)
		require.NoError(t, statErr)
		assert.True(t, info.IsDir())
	}
}

func TestImportCSV(t *testing.T) {
	q := newTestQueue(t)
	path := writeCSV(t,
		"url,priority,category",
		"https://a.example.com,high,landing",
		"https://b.example.com,,",
		"https://c.example.com,low,pricing",
	)

	added, err := q.ImportCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	pending := q.GetPending()
	require.Len(t, pending, 3)
	assert.Equal(t, "https://a.example.com", pending[0].URL)
	assert.Equal(t, "high", pending[0].Priority)
	assert.Equal(t, "landing", pending[0].Category)
	assert.Equal(t, "medium", pending[1].Priority, "empty priority cell falls back to the default")
	assert.Equal(t, models.JobStatusPending, pending[2].Status)
	assert.Equal(t, 3, pending[0].MaxRetries)

	_, statErr := os.Stat(q.config.SnapshotPath())
	assert.NoError(t, statErr, "import persists the snapshot")
}

func TestImportCSV_MissingURLColumn(t *testing.T) {
	q := newTestQueue(t)
	path := writeCSV(t,
		"link,priority",
		"https://a.example.com,high",
	)

	added, err := q.ImportCSV(path)
	assert.Equal(t, 0, added)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "url", vErr.Field)
}

func TestImportCSV_EmptyURLCell(t *testing.T) {
	q := newTestQueue(t)
	path := writeCSV(t,
		"url,priority",
		"https://a.example.com,high",
		",low",
	)

	added, err := q.ImportCSV(path)
	assert.Equal(t, 0, added)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, q.GetPending(), "an invalid row aborts the whole import")
}

func TestImportCSV_NoDeduplication(t *testing.T) {
	q := newTestQueue(t)
	path := writeCSV(t,
		"url",
		"https://dup.example.com",
		"https://dup.example.com",
	)

	added, err := q.ImportCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Len(t, q.GetPending(), 2)
}

func TestAddJob(t *testing.T) {
	q := newTestQueue(t)

	job, err := q.AddJob("https://solo.example.com", "", "promo")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, "medium", job.Priority)
	assert.Equal(t, "promo", job.Category)
	assert.False(t, job.CreatedAt.IsZero())

	_, err = q.AddJob("   ", "", "")
	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateStatus_Stamping(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.AddJob("https://a.example.com", "", "")
	require.NoError(t, err)

	require.NoError(t, q.UpdateStatus("https://a.example.com", models.JobStatusProcessing, ""))
	job, ok := q.GetJob("https://a.example.com")
	require.True(t, ok)
	require.NotNil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Equal(t, 0, job.RetryCount)

	require.NoError(t, q.UpdateStatus("https://a.example.com", models.JobStatusCompleted, ""))
	job, _ = q.GetJob("https://a.example.com")
	require.NotNil(t, job.CompletedAt)
	assert.Equal(t, 0, job.RetryCount, "retry count only moves on error transitions")
}

func TestUpdateStatus_ErrorIncrementsRetryCount(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.AddJob("https://b.example.com", "", "")
	require.NoError(t, err)

	require.NoError(t, q.UpdateStatus("https://b.example.com", models.JobStatusProcessing, ""))
	require.NoError(t, q.UpdateStatus("https://b.example.com", models.JobStatusError, "extraction timed out"))

	job, _ := q.GetJob("https://b.example.com")
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "extraction timed out", job.ErrorMessage)
	assert.NotNil(t, job.CompletedAt)
}

func TestUpdateStatus_UnknownURLIsNoOp(t *testing.T) {
	q := newTestQueue(t)

	err := q.UpdateStatus("https://ghost.example.com", models.JobStatusCompleted, "")
	assert.NoError(t, err)
	assert.Equal(t, 0, q.Summary().Total)
}

func TestResetJob_KeepsRetryCount(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.AddJob("https://c.example.com", "", "")
	require.NoError(t, err)

	require.NoError(t, q.UpdateStatus("https://c.example.com", models.JobStatusProcessing, ""))
	require.NoError(t, q.UpdateStatus("https://c.example.com", models.JobStatusError, "boom"))
	require.NoError(t, q.ResetJob("https://c.example.com"))

	job, _ := q.GetJob("https://c.example.com")
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMessage)
	assert.Equal(t, 1, job.RetryCount)
}

func TestGetRetryable_ExcludesExhaustedJobs(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.AddJob("https://fresh.example.com", "", "")
	require.NoError(t, err)
	_, err = q.AddJob("https://spent.example.com", "", "")
	require.NoError(t, err)

	require.NoError(t, q.UpdateStatus("https://fresh.example.com", models.JobStatusError, "first failure"))
	for i := 0; i < 3; i++ {
		require.NoError(t, q.UpdateStatus("https://spent.example.com", models.JobStatusError, "failed again"))
	}

	retryable := q.GetRetryable()
	require.Len(t, retryable, 1)
	assert.Equal(t, "https://fresh.example.com", retryable[0].URL)
}

func TestProcessingScenario_SummaryAndRetryBookkeeping(t *testing.T) {
	q := newTestQueue(t)
	path := writeCSV(t,
		"url",
		"https://a.example.com",
		"https://b.example.com",
		"https://c.example.com",
	)
	_, err := q.ImportCSV(path)
	require.NoError(t, err)

	for _, url := range []string{"https://a.example.com", "https://b.example.com", "https://c.example.com"} {
		require.NoError(t, q.UpdateStatus(url, models.JobStatusProcessing, ""))
		if url == "https://b.example.com" {
			require.NoError(t, q.UpdateStatus(url, models.JobStatusError, "analysis failed"))
			continue
		}
		require.NoError(t, q.UpdateStatus(url, models.JobStatusCompleted, ""))
	}

	summary := q.Summary()
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Error)
	assert.Equal(t, 0, summary.Pending)
	assert.Equal(t, 0, summary.Processing)
	assert.InDelta(t, 66.67, summary.Progress, 0.001)

	failed, _ := q.GetJob("https://b.example.com")
	assert.Equal(t, 1, failed.RetryCount)
	assert.Equal(t, "analysis failed", failed.ErrorMessage)
}

func TestSummary_EmptyQueue(t *testing.T) {
	q := newTestQueue(t)

	summary := q.Summary()
	assert.Equal(t, models.Summary{}, summary)
}

func TestSummary_ProgressRounding(t *testing.T) {
	q := newTestQueue(t)
	for _, url := range []string{"https://1.example.com", "https://2.example.com", "https://3.example.com"} {
		_, err := q.AddJob(url, "", "")
		require.NoError(t, err)
	}
	require.NoError(t, q.UpdateStatus("https://1.example.com", models.JobStatusCompleted, ""))

	assert.InDelta(t, 33.33, q.Summary().Progress, 0.001)
}

func TestPersistRestore_RoundTrip(t *testing.T) {
	cfg := &common.QueueConfig{DataDir: t.TempDir(), MaxRetries: 3}
	logger := arbor.NewLogger()

	q, err := New(cfg, logger)
	require.NoError(t, err)
	_, err = q.AddJob("https://a.example.com", "high", "landing")
	require.NoError(t, err)
	_, err = q.AddJob("https://b.example.com", "", "")
	require.NoError(t, err)
	require.NoError(t, q.UpdateStatus("https://a.example.com", models.JobStatusProcessing, ""))
	require.NoError(t, q.UpdateStatus("https://a.example.com", models.JobStatusError, "boom"))

	restored, err := New(cfg, logger)
	require.NoError(t, err)
	loaded, err := restored.Restore()
	require.NoError(t, err)
	require.True(t, loaded)

	job, ok := restored.GetJob("https://a.example.com")
	require.True(t, ok)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "boom", job.ErrorMessage)
	assert.Equal(t, "high", job.Priority)
	assert.NotNil(t, job.StartedAt)
	assert.Equal(t, 2, restored.Summary().Total)
}

func TestRestore_MissingSnapshot(t *testing.T) {
	q := newTestQueue(t)

	loaded, err := q.Restore()
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestRestore_CorruptSnapshot(t *testing.T) {
	q := newTestQueue(t)
	require.NoError(t, os.WriteFile(q.config.SnapshotPath(), []byte("{not json"), 0644))

	loaded, err := q.Restore()
	require.NoError(t, err, "a corrupt snapshot must not raise")
	assert.False(t, loaded)
}

func TestSnapshotDocumentShape(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.AddJob("https://a.example.com", "", "")
	require.NoError(t, err)

	data, err := os.ReadFile(q.config.SnapshotPath())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "jobs")
	assert.Contains(t, doc, "summary")
	assert.Contains(t, doc, "last_updated")
}

func TestResetStale(t *testing.T) {
	q := newTestQueue(t)
	for _, url := range []string{"https://1.example.com", "https://2.example.com", "https://3.example.com"} {
		_, err := q.AddJob(url, "", "")
		require.NoError(t, err)
	}
	require.NoError(t, q.UpdateStatus("https://1.example.com", models.JobStatusProcessing, ""))
	require.NoError(t, q.UpdateStatus("https://2.example.com", models.JobStatusProcessing, ""))
	require.NoError(t, q.UpdateStatus("https://3.example.com", models.JobStatusCompleted, ""))

	count, err := q.ResetStale()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, q.GetPending(), 2)
	assert.Len(t, q.GetByStatus(models.JobStatusCompleted), 1)
}

func TestExportResultsCSV(t *testing.T) {
	q := newTestQueue(t)
	_, err := q.AddJob("https://a.example.com", "high", "landing")
	require.NoError(t, err)
	require.NoError(t, q.UpdateStatus("https://a.example.com", models.JobStatusCompleted, ""))

	path, err := q.ExportResultsCSV("")
	require.NoError(t, err)
	assert.Contains(t, path, "job_results_")

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one job row")
	assert.Equal(t, "url", rows[0][0])
	assert.Equal(t, "https://a.example.com", rows[1][0])
	assert.Equal(t, "completed", rows[1][3])
}
