package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// ContentResponse represents a provider-agnostic content generation response
// including the token usage the provider reported for the call.
type ContentResponse struct {
	Text         string
	Provider     ProviderType
	Model        string
	InputTokens  int
	OutputTokens int
}

// ProviderFactory creates and manages AI provider clients. Clients are
// created lazily on first use so a run that only touches one provider never
// needs the other's API key. Lazy initialization is mutex-guarded because
// analysis facets call concurrently.
type ProviderFactory struct {
	claudeConfig *common.ClaudeConfig
	geminiConfig *common.GeminiConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger

	mu            sync.Mutex
	claudeClient  anthropic.Client
	claudeReady   bool
	claudeTimeout time.Duration
	geminiClient  *genai.Client
	geminiTimeout time.Duration
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	claudeConfig *common.ClaudeConfig,
	geminiConfig *common.GeminiConfig,
	llmConfig *common.LLMConfig,
	logger arbor.ILogger,
) *ProviderFactory {
	return &ProviderFactory{
		claudeConfig: claudeConfig,
		geminiConfig: geminiConfig,
		llmConfig:    llmConfig,
		logger:       logger,
	}
}

// DetectProvider determines the provider type from a model string.
// Model strings can be:
// - "claude-haiku-3-5-20241022" -> Claude
// - "claude/claude-haiku-3-5-20241022" -> Claude (with prefix)
// - "gemini-3-flash-preview" -> Gemini
// - "gemini/gemini-3-flash-preview" -> Gemini (with prefix)
// - Empty string -> uses default provider from config
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	if model == "" {
		return ProviderType(f.llmConfig.DefaultProvider)
	}

	model = strings.ToLower(model)

	// Check for explicit provider prefix
	if strings.HasPrefix(model, "claude/") || strings.HasPrefix(model, "anthropic/") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini/") || strings.HasPrefix(model, "google/") {
		return ProviderGemini
	}

	// Check for model name patterns
	if strings.HasPrefix(model, "claude-") {
		return ProviderClaude
	}
	if strings.HasPrefix(model, "gemini-") {
		return ProviderGemini
	}

	// Default to configured provider
	return ProviderType(f.llmConfig.DefaultProvider)
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	prefixes := []string{"claude/", "anthropic/", "gemini/", "google/"}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.claudeConfig.Model
	case ProviderGemini:
		return f.geminiConfig.Model
	default:
		return f.llmConfig.DefaultModel
	}
}

// getClaudeClient returns the Claude client, creating it on first use
func (f *ProviderFactory) getClaudeClient() (anthropic.Client, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeReady {
		return f.claudeClient, f.claudeTimeout, nil
	}

	apiKey, err := common.ResolveAPIKey(common.LLMProviderClaude, f.claudeConfig.APIKey)
	if err != nil {
		return anthropic.Client{}, 0, &models.PermanentServiceError{
			Provider:   string(ProviderClaude),
			StatusCode: 401,
			Message:    err.Error(),
		}
	}

	timeout, err := time.ParseDuration(f.claudeConfig.Timeout)
	if err != nil {
		return anthropic.Client{}, 0, fmt.Errorf("invalid claude timeout %q: %w", f.claudeConfig.Timeout, err)
	}

	f.claudeClient = anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	f.claudeTimeout = timeout
	f.claudeReady = true

	f.logger.Debug().
		Str("model", f.claudeConfig.Model).
		Dur("timeout", timeout).
		Msg("Claude client initialized")

	return f.claudeClient, f.claudeTimeout, nil
}

// getGeminiClient returns the Gemini client, creating it on first use
func (f *ProviderFactory) getGeminiClient(ctx context.Context) (*genai.Client, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, f.geminiTimeout, nil
	}

	apiKey, err := common.ResolveAPIKey(common.LLMProviderGemini, f.geminiConfig.APIKey)
	if err != nil {
		return nil, 0, &models.PermanentServiceError{
			Provider:   string(ProviderGemini),
			StatusCode: 401,
			Message:    err.Error(),
		}
	}

	timeout, err := time.ParseDuration(f.geminiConfig.Timeout)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid gemini timeout %q: %w", f.geminiConfig.Timeout, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	f.geminiTimeout = timeout

	f.logger.Debug().
		Str("model", f.geminiConfig.Model).
		Dur("timeout", timeout).
		Msg("Gemini client initialized")

	return f.geminiClient, f.geminiTimeout, nil
}

// GenerateContent generates content using the appropriate provider based on
// the requested model. Provider failures are classified into transient and
// permanent service errors; the caller owns retry behavior.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("max_tokens", request.MaxTokens).
		Msg("Generating content with provider")

	switch provider {
	case ProviderClaude:
		return f.generateWithClaude(ctx, request, model)
	case ProviderGemini:
		return f.generateWithGemini(ctx, request, model)
	default:
		return f.generateWithGemini(ctx, request, model)
	}
}

// generateWithClaude generates content using Claude API
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, timeout, err := f.getClaudeClient()
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.claudeConfig.Model
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.llmConfig.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.claudeConfig.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if request.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.System},
		}
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := client.Messages.New(callCtx, params)
	if err != nil {
		return nil, classifyError(ProviderClaude, err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, &models.PermanentServiceError{
			Provider:   string(ProviderClaude),
			StatusCode: 400,
			Message:    "empty response from Claude API",
		}
	}

	return &ContentResponse{
		Text:         text.String(),
		Provider:     ProviderClaude,
		Model:        model,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, timeout, err := f.getGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.geminiConfig.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if request.MaxTokens > 0 {
		config.MaxOutputTokens = int32(request.MaxTokens)
	}
	if request.System != "" {
		config.SystemInstruction = genai.NewContentFromText(request.System, genai.RoleUser)
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(request.Prompt)},
		},
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := client.Models.GenerateContent(callCtx, model, contents, config)
	if err != nil {
		return nil, classifyError(ProviderGemini, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &models.PermanentServiceError{
			Provider:   string(ProviderGemini),
			StatusCode: 400,
			Message:    "empty response from Gemini API",
		}
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, &models.PermanentServiceError{
			Provider:   string(ProviderGemini),
			StatusCode: 400,
			Message:    "empty text in Gemini response",
		}
	}

	inputTokens := 0
	outputTokens := 0
	if resp.UsageMetadata != nil {
		inputTokens = int(resp.UsageMetadata.PromptTokenCount)
		outputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ContentResponse{
		Text:         responseText,
		Provider:     ProviderGemini,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, nil
}

// classifyError maps a raw provider error onto the service error taxonomy.
// Rate-limit and timeout signals are transient; everything else is permanent.
// Context cancellation passes through unchanged so callers can distinguish
// their own shutdown from provider failures.
func classifyError(provider ProviderType, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	msg := err.Error()
	switch {
	case IsRateLimitError(err):
		return &models.TransientServiceError{
			Provider:   string(provider),
			StatusCode: 429,
			Message:    msg,
			RetryAfter: ExtractRetryDelay(err),
		}
	case IsTimeoutError(err):
		return &models.TransientServiceError{
			Provider:   string(provider),
			StatusCode: 408,
			Message:    msg,
		}
	case isAuthError(err):
		return &models.PermanentServiceError{
			Provider:   string(provider),
			StatusCode: 401,
			Message:    msg,
		}
	default:
		return &models.PermanentServiceError{
			Provider:   string(provider),
			StatusCode: 400,
			Message:    msg,
		}
	}
}

// isAuthError checks for authentication and authorization failures.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "api key")
}

// Close releases all provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.claudeClient = anthropic.Client{}
	f.claudeReady = false
	return nil
}
