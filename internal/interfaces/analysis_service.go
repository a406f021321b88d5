package interfaces

import (
	"context"

	"github.com/ternarybob/scrutor/internal/models"
)

// AnalysisService defines the interface for template-driven AI analysis.
//
// Implementations manage provider selection, rate limiting, and retry
// behavior internally. Callers supply a template name and the field values
// to substitute into the template's prompt.
type AnalysisService interface {
	// Call issues a single completion request with explicit prompts.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - systemPrompt: System instruction for the model
	//   - userPrompt: User message content
	//   - model: Model identifier (empty string uses the configured default)
	//   - maxTokens: Completion token ceiling (<=0 uses the configured default)
	//
	// Returns the response with token usage, cost estimate, and latency.
	Call(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int) (*models.AnalysisResponse, error)

	// CallWithTemplate resolves a named prompt template, substitutes the
	// provided fields into its user prompt, and issues the call. A missing
	// template is reported as *models.ValidationError.
	CallWithTemplate(ctx context.Context, templateName string, fields map[string]string) (*models.AnalysisResponse, error)

	// CallWithChunking splits oversized text into segments and issues one
	// templated call per segment, carrying segment position metadata in the
	// chunk_info field. Responses are returned in segment order. A failure
	// on any segment aborts the run and propagates with its position.
	CallWithChunking(ctx context.Context, text, templateName string, extraFields map[string]string) ([]*models.AnalysisResponse, error)

	// TotalCost returns the accumulated cost estimate across all calls
	// made through this client instance.
	TotalCost() float64
}
