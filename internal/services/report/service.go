package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// Service renders completed analyses into the configured report formats.
type Service struct {
	config *common.ReportConfig
	logger arbor.ILogger
}

var _ interfaces.Exporter = (*Service)(nil)

// New creates the report service and its output directory.
func New(config *common.ReportConfig, logger arbor.ILogger) (*Service, error) {
	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report output directory: %w", err)
	}
	return &Service{
		config: config,
		logger: logger,
	}, nil
}

// Export writes the per-URL report in every configured format and returns
// the written paths. A write failure aborts the remaining formats.
func (s *Service) Export(ctx context.Context, analysis *models.PageAnalysis, content *models.PageContent) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("analysis_%s_%s", safeFileName(analysis.URL), time.Now().Format("20060102_150405"))
	markdown := renderIndividualReport(analysis, content)

	var paths []string
	for _, format := range s.config.Formats {
		var (
			path string
			err  error
		)
		switch format {
		case "markdown":
			path = filepath.Join(s.config.OutputDir, base+".md")
			err = os.WriteFile(path, []byte(markdown), 0o644)
		case "json":
			path = filepath.Join(s.config.OutputDir, base+".json")
			var data []byte
			data, err = json.MarshalIndent(analysis, "", "  ")
			if err == nil {
				err = os.WriteFile(path, data, 0o644)
			}
		case "pdf":
			path = filepath.Join(s.config.OutputDir, base+".pdf")
			var data []byte
			data, err = renderPDF(markdown, analysis.URL, s.logger)
			if err == nil {
				err = os.WriteFile(path, data, 0o644)
			}
		default:
			s.logger.Warn().Str("format", format).Msg("Unknown report format")
			continue
		}
		if err != nil {
			return paths, fmt.Errorf("failed to write %s report: %w", format, err)
		}
		paths = append(paths, path)
	}

	s.logger.Info().
		Str("url", analysis.URL).
		Int("files", len(paths)).
		Msg("Reports written")

	return paths, nil
}

// WriteSummaryReport renders the combined markdown report over a run's
// results and returns its path.
func (s *Service) WriteSummaryReport(results []*models.PageAnalysis, contents map[string]*models.PageContent) (string, error) {
	markdown := renderSummaryReport(results, contents)
	path := filepath.Join(s.config.OutputDir,
		fmt.Sprintf("analysis_summary_%s.md", time.Now().Format("20060102_150405")))

	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary report: %w", err)
	}

	s.logger.Info().Str("path", path).Int("results", len(results)).Msg("Summary report written")
	return path, nil
}

type resultEnvelope struct {
	ExportTimestamp string                 `json:"export_timestamp"`
	TotalCount      int                    `json:"total_count"`
	Results         []*models.PageAnalysis `json:"results"`
}

// WriteResultData dumps a run's analyses as one JSON document for downstream
// tooling.
func (s *Service) WriteResultData(results []*models.PageAnalysis) (string, error) {
	envelope := resultEnvelope{
		ExportTimestamp: time.Now().Format(time.RFC3339),
		TotalCount:      len(results),
		Results:         results,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result data: %w", err)
	}

	path := filepath.Join(s.config.OutputDir,
		fmt.Sprintf("analysis_data_%s.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write result data: %w", err)
	}

	s.logger.Info().Str("path", path).Int("results", len(results)).Msg("Result data written")
	return path, nil
}

// safeFileName turns a URL into a filesystem-safe report name fragment.
func safeFileName(rawURL string) string {
	name := strings.TrimPrefix(rawURL, "https://")
	name = strings.TrimPrefix(name, "http://")

	var sb strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '-', c == '_':
			sb.WriteRune(c)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
