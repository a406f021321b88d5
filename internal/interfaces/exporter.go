package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// Exporter writes a completed analysis and its source content to report files.
type Exporter interface {
	// Export renders the analysis in the configured formats and returns
	// the paths of the files written.
	Export(ctx context.Context, analysis *models.PageAnalysis, content *models.PageContent) ([]string, error)
}
