package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

type directCall struct {
	system    string
	user      string
	model     string
	maxTokens int
}

type mockAnalysisService struct {
	mu            sync.Mutex
	templateCalls []string
	fieldsSeen    map[string]map[string]string
	directCalls   []directCall
	responses     map[string]*models.AnalysisResponse
	failTemplate  string
	summaryErr    error
	summaryResp   *models.AnalysisResponse
}

var _ interfaces.AnalysisService = (*mockAnalysisService)(nil)

func (m *mockAnalysisService) Call(ctx context.Context, systemPrompt, userPrompt, model string, maxTokens int) (*models.AnalysisResponse, error) {
	m.mu.Lock()
	m.directCalls = append(m.directCalls, directCall{systemPrompt, userPrompt, model, maxTokens})
	m.mu.Unlock()

	if m.summaryErr != nil {
		return nil, m.summaryErr
	}
	if m.summaryResp != nil {
		return m.summaryResp, nil
	}
	return &models.AnalysisResponse{Content: "summary points", TokensUsed: 300, Cost: 0.003}, nil
}

func (m *mockAnalysisService) CallWithTemplate(ctx context.Context, templateName string, fields map[string]string) (*models.AnalysisResponse, error) {
	m.mu.Lock()
	m.templateCalls = append(m.templateCalls, templateName)
	if m.fieldsSeen == nil {
		m.fieldsSeen = make(map[string]map[string]string)
	}
	m.fieldsSeen[templateName] = fields
	m.mu.Unlock()

	if templateName == m.failTemplate {
		return nil, errors.New("rate limited")
	}
	if resp, ok := m.responses[templateName]; ok {
		return resp, nil
	}
	return &models.AnalysisResponse{Content: "generic analysis text", TokensUsed: 100, Cost: 0.001}, nil
}

func (m *mockAnalysisService) CallWithChunking(ctx context.Context, text, templateName string, extraFields map[string]string) ([]*models.AnalysisResponse, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAnalysisService) TotalCost() float64 { return 0 }

func (m *mockAnalysisService) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.templateCalls...)
}

func (m *mockAnalysisService) summaries() []directCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]directCall(nil), m.directCalls...)
}

func testContent() *models.PageContent {
	return &models.PageContent{
		URL:             "https://acme.example.com/landing",
		Title:           "Acme Growth Platform",
		MetaDescription: "Marketing automation for small teams.",
		Headings: map[string][]string{
			"h1": {"Grow faster with Acme"},
			"h2": {"Why teams choose Acme", "Simple pricing"},
		},
		MainText: "Growth tools for growth teams",
		CTAElements: []models.CTAElement{
			{Type: "link_button", Text: "Start free trial", Href: "https://acme.example.com/signup"},
			{Type: "button", Text: "Subscribe"},
		},
		Forms: []models.FormInfo{
			{
				Action: "/subscribe",
				Method: "POST",
				Fields: []models.FormField{
					{Type: "email", Name: "email", Label: "Work email"},
					{Type: "select", Name: "company_size"},
				},
			},
		},
	}
}

const personaYAML = "Here is the structured output.\n```yaml\nage_range: 25-34\ngender: female\noccupation: marketing manager\nincome_level: mid\nlifestyle: busy urban professional\nvalues: efficiency\nproblems:\n  - no time for campaigns\n  - rising ad costs\ninformation_behavior: reads industry newsletters\ndecision_factors:\n  - roi\n  - ease of setup\n```\nThe audience skews toward in-house marketers."

const uspYAML = "```yaml\nmain_usp: Fastest onboarding in the category\ncompetitive_advantages:\n  - setup in minutes\nunique_value: Zero-code automation\nevidence:\n  - 4.8 average rating\nkey_features:\n  - visual builder\n```"

const benefitYAML = "```yaml\nfunctional_benefits:\n  - saves hours weekly\nemotional_benefits:\n  - peace of mind\nkey_keywords:\n  - automation\npower_words:\n  - instantly\nurgency_elements:\n  - limited seats\ntrust_elements:\n  - soc2 certified\n```"

const copywritingYAML = "```yaml\naida_elements:\n  attention:\n    - bold headline\n  action:\n    - trial button\ntechniques_used:\n  - AIDA\n  - Social Proof\nsocial_proof:\n  - customer logos\n```"

func facetResponses() map[string]*models.AnalysisResponse {
	return map[string]*models.AnalysisResponse{
		templatePersona:     {Content: personaYAML, TokensUsed: 1000, Cost: 0.01},
		templateUSP:         {Content: uspYAML, TokensUsed: 1100, Cost: 0.012},
		templateBenefit:     {Content: benefitYAML, TokensUsed: 900, Cost: 0.008},
		templateCopywriting: {Content: copywritingYAML, TokensUsed: 950, Cost: 0.009},
	}
}

func TestAnalyze_ParsesAllFacets(t *testing.T) {
	mock := &mockAnalysisService{
		responses:   facetResponses(),
		summaryResp: &models.AnalysisResponse{Content: "1. Lead with onboarding speed.", TokensUsed: 200, Cost: 0.002},
	}
	svc := New(mock, arbor.NewLogger())

	analysis, err := svc.Analyze(context.Background(), testContent())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(analysis.ID, "analysis_"))
	assert.Equal(t, "https://acme.example.com/landing", analysis.URL)
	assert.False(t, analysis.Timestamp.IsZero())

	assert.Equal(t, "25-34", analysis.Persona.AgeRange)
	assert.Equal(t, "marketing manager", analysis.Persona.Occupation)
	assert.Equal(t, []string{"no time for campaigns", "rising ad costs"}, analysis.Persona.Problems)
	assert.Equal(t, personaYAML, analysis.Persona.RawAnalysis)

	assert.Equal(t, "Fastest onboarding in the category", analysis.USP.MainUSP)
	assert.Equal(t, []string{"setup in minutes"}, analysis.USP.CompetitiveAdvantages)
	assert.Equal(t, "Zero-code automation", analysis.USP.UniqueValue)

	assert.Equal(t, []string{"instantly"}, analysis.Benefits.PowerWords)
	assert.Equal(t, []string{"soc2 certified"}, analysis.Benefits.TrustElements)

	assert.Equal(t, []string{"bold headline"}, analysis.Copywriting.AIDAElements["attention"])
	assert.Empty(t, analysis.Copywriting.AIDAElements["interest"])
	assert.Equal(t, []string{"AIDA", "Social Proof"}, analysis.Copywriting.TechniquesUsed)

	assert.Equal(t, "1. Lead with onboarding speed.", analysis.AnalysisSummary)
	assert.Equal(t, []string{"growth", "tools", "for", "teams"}, analysis.Keywords)
	assert.Equal(t, 5, analysis.ContentQuality.WordCount)

	assert.InDelta(t, 0.041, analysis.TotalCost, 1e-9)
	assert.Equal(t, 4150, analysis.TokensUsed)

	assert.ElementsMatch(t,
		[]string{templatePersona, templateUSP, templateBenefit, templateCopywriting},
		mock.templates())
}

func TestAnalyze_FacetFailurePropagates(t *testing.T) {
	mock := &mockAnalysisService{failTemplate: templateUSP}
	svc := New(mock, arbor.NewLogger())

	analysis, err := svc.Analyze(context.Background(), testContent())
	require.Error(t, err)
	assert.Nil(t, analysis)
	assert.Contains(t, err.Error(), "usp_analysis")
	assert.Contains(t, err.Error(), "rate limited")
	assert.Empty(t, mock.summaries(), "summary must not be generated after a facet failure")
}

func TestAnalyze_SummaryFailureDegrades(t *testing.T) {
	mock := &mockAnalysisService{summaryErr: errors.New("quota exhausted")}
	svc := New(mock, arbor.NewLogger())

	analysis, err := svc.Analyze(context.Background(), testContent())
	require.NoError(t, err)

	assert.Contains(t, analysis.AnalysisSummary, "summary generation failed")
	assert.Contains(t, analysis.AnalysisSummary, "quota exhausted")
	assert.InDelta(t, 0.004, analysis.TotalCost, 1e-9)
	assert.Equal(t, 400, analysis.TokensUsed)
}

func TestAnalyze_SummaryPromptCarriesFacetResults(t *testing.T) {
	mock := &mockAnalysisService{responses: facetResponses()}
	svc := New(mock, arbor.NewLogger())

	_, err := svc.Analyze(context.Background(), testContent())
	require.NoError(t, err)

	calls := mock.summaries()
	require.Len(t, calls, 1)
	assert.Equal(t, summarySystemPrompt, calls[0].system)
	assert.Equal(t, summaryMaxTokens, calls[0].maxTokens)
	assert.Empty(t, calls[0].model)
	assert.Contains(t, calls[0].user, "[Persona analysis]")
	assert.Contains(t, calls[0].user, "[Copywriting techniques]")
	assert.Contains(t, calls[0].user, "age_range: 25-34")
	assert.Contains(t, calls[0].user, "Fastest onboarding in the category")
}

func TestPrepareFields(t *testing.T) {
	fields := prepareFields(testContent())

	assert.Equal(t, "Acme Growth Platform", fields["title"])
	assert.Equal(t, "Marketing automation for small teams.", fields["meta_description"])
	assert.Equal(t, "https://acme.example.com/landing", fields["url"])
	assert.Equal(t, "H1: Grow faster with Acme\nH2: Why teams choose Acme, Simple pricing", fields["headings"])
	assert.Equal(t, "[link_button] Start free trial\n[button] Subscribe", fields["cta_elements"])
	assert.Contains(t, fields["form_elements"], "Form: /subscribe")
	assert.Contains(t, fields["form_elements"], "Work email (email)")
	assert.Contains(t, fields["form_elements"], "company_size (select)")
	assert.Equal(t, "Growth tools for growth teams", fields["main_text"])
}

func TestPrepareFields_TruncatesMainText(t *testing.T) {
	content := testContent()
	content.MainText = strings.Repeat("lorem ipsum dolor sit amet ", 400)

	fields := prepareFields(content)
	assert.Len(t, []rune(fields["main_text"]), mainTextPromptLimit)
	assert.True(t, strings.HasPrefix(content.MainText, fields["main_text"]))
}
