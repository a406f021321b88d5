package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// ResultStore archives analysis results and extracted content for later
// retrieval. Implementations are backed by an embedded document store.
type ResultStore interface {
	// SaveAnalysis upserts an analysis result keyed by its ID.
	SaveAnalysis(ctx context.Context, analysis *models.PageAnalysis) error

	// SaveContent upserts an extracted content object keyed by URL.
	SaveContent(ctx context.Context, content *models.PageContent) error

	// GetAnalysis returns the analysis with the given ID, or an error
	// when no record exists.
	GetAnalysis(ctx context.Context, id string) (*models.PageAnalysis, error)

	// GetAnalysisByURL returns the most recent analysis for a URL.
	GetAnalysisByURL(ctx context.Context, url string) (*models.PageAnalysis, error)

	// GetContent returns the stored content object for a URL.
	GetContent(ctx context.Context, url string) (*models.PageContent, error)

	// ListAnalyses returns stored analyses, newest first, up to limit.
	// A limit <= 0 returns all records.
	ListAnalyses(ctx context.Context, limit int) ([]*models.PageAnalysis, error)

	// Close releases the underlying store.
	Close() error
}
