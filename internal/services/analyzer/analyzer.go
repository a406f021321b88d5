package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/services/extractor"
)

// Facet template names, written by the prompt manager on first run.
const (
	templatePersona     = "persona_analysis"
	templateUSP         = "usp_analysis"
	templateBenefit     = "benefit_analysis"
	templateCopywriting = "copywriting_analysis"
)

const (
	mainTextPromptLimit = 8000
	rawSummaryLimit     = 500
	summaryMaxTokens    = 1000
	keywordMinLength    = 3
)

const summarySystemPrompt = "You are an affiliate marketing expert. Summarize the key points for article writing from landing page analysis results."

var facetTemplates = []string{templatePersona, templateUSP, templateBenefit, templateCopywriting}

// Service runs the marketing analysis facets over extracted page content and
// synthesizes a combined summary.
type Service struct {
	client interfaces.AnalysisService
	logger arbor.ILogger
}

// New creates an analyzer backed by the given analysis client.
func New(client interfaces.AnalysisService, logger arbor.ILogger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// facetResult carries one facet call's outcome across goroutines.
type facetResult struct {
	template string
	resp     *models.AnalysisResponse
	err      error
}

// Analyze runs the four facet analyses concurrently, parses their replies,
// and generates the combined summary. Quality metrics and keywords are
// computed locally without a model call. Any facet failure fails the whole
// analysis; a summary failure only degrades the summary text.
func (s *Service) Analyze(ctx context.Context, content *models.PageContent) (*models.PageAnalysis, error) {
	start := time.Now()

	s.logger.Info().Str("url", content.URL).Msg("Analyzing page content")

	quality := extractor.AnalyzeContentQuality(content)
	keywords := extractor.ExtractKeywords(content, keywordMinLength)

	fields := prepareFields(content)

	results := make(chan facetResult, len(facetTemplates))
	for _, template := range facetTemplates {
		template := template
		common.SafeGo(s.logger, "analyzeFacet", func() {
			resp, err := s.client.CallWithTemplate(ctx, template, fields)
			results <- facetResult{template: template, resp: resp, err: err}
		})
	}

	responses := make(map[string]*models.AnalysisResponse, len(facetTemplates))
	for range facetTemplates {
		result := <-results
		if result.err != nil {
			return nil, fmt.Errorf("%s failed: %w", result.template, result.err)
		}
		responses[result.template] = result.resp
	}

	persona := parsePersona(responses[templatePersona].Content)
	usp := parseUSP(responses[templateUSP].Content)
	benefits := parseBenefits(responses[templateBenefit].Content)
	copywriting := parseCopywriting(responses[templateCopywriting].Content)

	summary, summaryResp := s.generateSummary(ctx, persona.RawAnalysis, usp.RawAnalysis, benefits.RawAnalysis, copywriting.RawAnalysis)

	totalCost := 0.0
	tokensUsed := 0
	for _, resp := range responses {
		totalCost += resp.Cost
		tokensUsed += resp.TokensUsed
	}
	if summaryResp != nil {
		totalCost += summaryResp.Cost
		tokensUsed += summaryResp.TokensUsed
	}

	analysis := &models.PageAnalysis{
		ID:              "analysis_" + uuid.New().String(),
		URL:             content.URL,
		Timestamp:       start,
		Persona:         persona,
		USP:             usp,
		Benefits:        benefits,
		Copywriting:     copywriting,
		ContentQuality:  quality,
		Keywords:        keywords,
		AnalysisSummary: summary,
		ProcessingTime:  time.Since(start),
		TotalCost:       totalCost,
		TokensUsed:      tokensUsed,
	}

	s.logger.Info().
		Str("url", content.URL).
		Dur("duration", analysis.ProcessingTime).
		Float64("cost", totalCost).
		Int("tokens", tokensUsed).
		Msg("Page analysis completed")

	return analysis, nil
}

// generateSummary asks the model for article-writing takeaways over the four
// facet analyses. Failures degrade to an error note instead of failing the
// whole analysis.
func (s *Service) generateSummary(ctx context.Context, personaRaw, uspRaw, benefitsRaw, copywritingRaw string) (string, *models.AnalysisResponse) {
	prompt := fmt.Sprintf(`Summarize the key takeaways for writing an affiliate article from the following landing page analysis results.

[Persona analysis]
%s

[USP analysis]
%s

[Benefit analysis]
%s

[Copywriting techniques]
%s

Give the 3-5 points that matter most when writing the article.`,
		truncate(personaRaw, rawSummaryLimit),
		truncate(uspRaw, rawSummaryLimit),
		truncate(benefitsRaw, rawSummaryLimit),
		truncate(copywritingRaw, rawSummaryLimit))

	resp, err := s.client.Call(ctx, summarySystemPrompt, prompt, "", summaryMaxTokens)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Summary generation failed")
		return fmt.Sprintf("summary generation failed: %v", err), nil
	}

	return resp.Content, resp
}

// prepareFields flattens the content object into the placeholder map the
// facet templates substitute from. Body text is capped so a single page
// never blows the prompt budget.
func prepareFields(content *models.PageContent) map[string]string {
	var headings strings.Builder
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		if texts := content.Headings[tag]; len(texts) > 0 {
			headings.WriteString(strings.ToUpper(tag))
			headings.WriteString(": ")
			headings.WriteString(strings.Join(texts, ", "))
			headings.WriteString("\n")
		}
	}

	var ctas strings.Builder
	for _, cta := range content.CTAElements {
		fmt.Fprintf(&ctas, "[%s] %s\n", cta.Type, cta.Text)
	}

	var forms strings.Builder
	for _, form := range content.Forms {
		fmt.Fprintf(&forms, "Form: %s ", form.Action)
		for _, field := range form.Fields {
			label := field.Label
			if label == "" {
				label = field.Name
			}
			fmt.Fprintf(&forms, "%s (%s), ", label, field.Type)
		}
		forms.WriteString("\n")
	}

	return map[string]string{
		"title":            content.Title,
		"meta_description": content.MetaDescription,
		"headings":         strings.TrimSpace(headings.String()),
		"main_text":        truncate(content.MainText, mainTextPromptLimit),
		"cta_elements":     strings.TrimSpace(ctas.String()),
		"form_elements":    strings.TrimSpace(forms.String()),
		"url":              content.URL,
	}
}
