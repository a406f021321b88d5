package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

// contentGenerator is the provider seam the client calls through.
// Satisfied by ProviderFactory.
type contentGenerator interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	Close() error
}

// AnalysisClient issues rate-governed, retried analysis calls against the
// configured AI providers. It owns its rate limiter and chunker; their state
// lives and dies with the client instance.
type AnalysisClient struct {
	config  *common.LLMConfig
	logger  arbor.ILogger
	factory contentGenerator
	limiter *RateLimiter
	chunker *TextChunker
	prompts *PromptManager
	pricing *PriceTable
	retry   *RetryPolicy
	auditor AuditLogger

	mu        sync.Mutex
	totalCost float64
}

// NewAnalysisClient creates a client from the LLM configuration. The prompt
// templates directory is created and populated with the built-in templates
// on first run.
func NewAnalysisClient(cfg *common.LLMConfig, logger arbor.ILogger) (*AnalysisClient, error) {
	prompts, err := NewPromptManager(cfg.TemplatesDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	return &AnalysisClient{
		config:  cfg,
		logger:  logger,
		factory: NewProviderFactory(&cfg.Claude, &cfg.Gemini, cfg, logger),
		limiter: NewRateLimiter(cfg.RequestsPerMinute, cfg.TokensPerMinute, logger),
		chunker: NewTextChunker(cfg.ChunkMaxTokens, cfg.ChunkOverlapTokens),
		prompts: prompts,
		pricing: NewPriceTable(),
		retry:   NewDefaultRetryPolicy(),
		auditor: NewNullAuditLogger(),
	}, nil
}

// SetAuditor routes call outcomes to the given audit trail. The default
// auditor discards records.
func (c *AnalysisClient) SetAuditor(auditor AuditLogger) {
	if auditor != nil {
		c.auditor = auditor
	}
}

// Call issues a single completion request. The composed prompts are estimated
// against the token budget, a request slot is acquired, and the provider call
// is made with transient-failure retries. Actual token usage is recorded in
// the limiter window and priced from the model table.
func (c *AnalysisClient) Call(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int) (*models.AnalysisResponse, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return nil, &models.ValidationError{Field: "user_prompt", Message: "user prompt cannot be empty"}
	}
	if model == "" {
		model = c.config.DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}

	estimated := c.chunker.EstimateTokens(systemPrompt) + c.chunker.EstimateTokens(userPrompt)

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := c.retry.Backoff(attempt-2, retryAfterHint(lastErr))
			c.logger.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("Retrying analysis call after transient failure")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.CheckTokenBudget(ctx, estimated); err != nil {
			return nil, err
		}
		if err := c.limiter.AcquireRequestSlot(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		result, err := c.factory.GenerateContent(ctx, &ContentRequest{
			System:    systemPrompt,
			Prompt:    userPrompt,
			Model:     model,
			MaxTokens: maxTokens,
		})
		if err != nil {
			if !models.IsTransient(err) {
				c.audit(CallRecord{
					Provider:   providerFromError(err),
					Model:      model,
					Prompt:     userPrompt,
					DurationMs: time.Since(start).Milliseconds(),
					Error:      err.Error(),
				})
				return nil, err
			}
			lastErr = err
			continue
		}

		latency := time.Since(start)
		tokensUsed := result.InputTokens + result.OutputTokens
		c.limiter.RecordUsage(tokensUsed)

		cost := c.pricing.Cost(result.Model, result.InputTokens, result.OutputTokens)
		c.mu.Lock()
		c.totalCost += cost
		c.mu.Unlock()

		c.logger.Debug().
			Str("model", result.Model).
			Int("tokens_used", tokensUsed).
			Float64("cost", cost).
			Dur("latency", latency).
			Msg("Analysis call completed")

		c.audit(CallRecord{
			Provider:     string(result.Provider),
			Model:        result.Model,
			Prompt:       userPrompt,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
			Cost:         cost,
			DurationMs:   latency.Milliseconds(),
			Success:      true,
		})

		return &models.AnalysisResponse{
			Content:      result.Text,
			Model:        result.Model,
			TokensUsed:   tokensUsed,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
			Cost:         cost,
			Latency:      latency,
			Timestamp:    time.Now(),
		}, nil
	}

	err := fmt.Errorf("analysis call failed after %d attempts: %w", c.retry.MaxAttempts, lastErr)
	c.audit(CallRecord{
		Provider: providerFromError(lastErr),
		Model:    model,
		Prompt:   userPrompt,
		Error:    err.Error(),
	})
	return nil, err
}

// CallWithTemplate resolves a named template, substitutes the field values
// into its user prompt, and issues the call.
func (c *AnalysisClient) CallWithTemplate(ctx context.Context, templateName string, fields map[string]string) (*models.AnalysisResponse, error) {
	tpl, ok := c.prompts.Get(templateName)
	if !ok {
		return nil, &models.ValidationError{
			Field:   "template",
			Message: fmt.Sprintf("template %q not found (available: %s)", templateName, strings.Join(c.prompts.List(), ", ")),
		}
	}

	userPrompt := common.ReplaceFieldReferences(tpl.UserPromptTemplate, fields, c.logger)
	return c.Call(ctx, tpl.SystemPrompt, userPrompt, tpl.Model, tpl.MaxTokens)
}

// CallWithChunking splits large text into segments and issues one templated
// call per segment. Each segment's fields carry main_text plus chunk_info
// with the segment position. Responses come back in segment order; a failed
// segment aborts the run, returning the responses gathered so far alongside
// the error so callers can decide what to keep.
func (c *AnalysisClient) CallWithChunking(ctx context.Context, text, templateName string, extraFields map[string]string) ([]*models.AnalysisResponse, error) {
	segments := c.chunker.Split(text)

	c.logger.Debug().
		Int("segments", len(segments)).
		Str("template", templateName).
		Msg("Splitting text for chunked analysis")

	responses := make([]*models.AnalysisResponse, 0, len(segments))
	for i, segment := range segments {
		fields := make(map[string]string, len(extraFields)+2)
		for k, v := range extraFields {
			fields[k] = v
		}
		fields["main_text"] = segment
		fields["chunk_info"] = fmt.Sprintf("segment %d/%d", i+1, len(segments))

		resp, err := c.CallWithTemplate(ctx, templateName, fields)
		if err != nil {
			return responses, fmt.Errorf("segment %d/%d failed: %w", i+1, len(segments), err)
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// TotalCost returns the accumulated cost estimate across all calls made
// through this client.
func (c *AnalysisClient) TotalCost() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalCost
}

// Templates exposes the prompt manager for listing and lookup.
func (c *AnalysisClient) Templates() *PromptManager {
	return c.prompts
}

// Close releases the provider clients.
func (c *AnalysisClient) Close() error {
	return c.factory.Close()
}

// audit records a call outcome. Audit failures never fail the call.
func (c *AnalysisClient) audit(record CallRecord) {
	if err := c.auditor.LogCall(record); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to record analysis call audit")
	}
}

// retryAfterHint extracts the provider-suggested delay from a transient
// error, if present.
func retryAfterHint(err error) time.Duration {
	var transient *models.TransientServiceError
	if errors.As(err, &transient) {
		return transient.RetryAfter
	}
	return 0
}

// providerFromError pulls the provider name out of a classified service
// error for audit records.
func providerFromError(err error) string {
	var transient *models.TransientServiceError
	if errors.As(err, &transient) {
		return transient.Provider
	}
	var permanent *models.PermanentServiceError
	if errors.As(err, &permanent) {
		return permanent.Provider
	}
	return ""
}
