package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// Extractor renders a URL and returns its extracted page content.
type Extractor interface {
	// ExtractContent navigates to the URL, waits for the page to render,
	// and returns the structured content object. Failures are reported
	// as *models.ExtractionError.
	ExtractContent(ctx context.Context, url string) (*models.PageContent, error)

	// Close releases the browser resources held by the extractor.
	Close() error
}
