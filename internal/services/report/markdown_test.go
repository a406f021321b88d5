package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/scrutor/internal/models"
)

func sampleAnalysis() *models.PageAnalysis {
	return &models.PageAnalysis{
		ID:        "analysis_fixture",
		URL:       "https://acme.example.com/landing",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Persona: models.PersonaAnalysis{
			AgeRange:        "25-34",
			Gender:          "female",
			Occupation:      "marketing manager",
			Problems:        []string{"no time for campaigns"},
			DecisionFactors: []string{"roi"},
			RawAnalysis:     "persona reply body",
		},
		USP: models.USPAnalysis{
			MainUSP:               "Fastest onboarding in the category",
			CompetitiveAdvantages: []string{"setup in minutes"},
			UniqueValue:           "Zero-code automation",
			Evidence:              []string{"4.8 average rating"},
			RawAnalysis:           "usp reply body",
		},
		Benefits: models.BenefitAnalysis{
			FunctionalBenefits: []string{"saves hours weekly"},
			EmotionalBenefits:  []string{"peace of mind"},
			PowerWords:         []string{"instantly"},
			RawAnalysis:        "benefit reply body",
		},
		Copywriting: models.CopywritingAnalysis{
			AIDAElements:   map[string][]string{"attention": {"bold headline"}, "interest": {}},
			PASElements:    map[string][]string{},
			SocialProof:    []string{"customer logos"},
			TechniquesUsed: []string{"AIDA", "Social Proof"},
			RawAnalysis:    "copy reply body",
		},
		ContentQuality: models.ContentQuality{
			WordCount: 5,
			CTACount:  4,
			FormCount: 1,
			HeadingStructure: map[string]models.HeadingStats{
				"h1": {Count: 1, AverageLength: 21},
				"h2": {Count: 2, AverageLength: 14.5},
			},
			SEO: models.SEOElements{HasTitle: true, HasH1: true, ImagesWithAlt: 0.5},
		},
		Keywords:        []string{"growth", "tools", "teams"},
		AnalysisSummary: "1. Lead with onboarding speed.",
		ProcessingTime:  3500 * time.Millisecond,
		TotalCost:       0.0415,
		TokensUsed:      4150,
	}
}

func sampleContent() *models.PageContent {
	return &models.PageContent{
		URL:             "https://acme.example.com/landing",
		Title:           "Acme Growth Platform",
		MetaDescription: "Marketing automation for small teams.",
		PageStructure: models.PageStructure{
			LPIndicators: models.LPIndicators{
				HasHeroSection: true,
				HasPricing:     true,
				FormCount:      1,
				CTAButtonCount: 2,
			},
		},
	}
}

func TestRenderIndividualReport(t *testing.T) {
	md := renderIndividualReport(sampleAnalysis(), sampleContent())

	assert.True(t, strings.HasPrefix(md, "# URL Analysis Report\n"))
	assert.Contains(t, md, "- **URL**: https://acme.example.com/landing")
	assert.Contains(t, md, "- **Processing time**: 3.50s")
	assert.Contains(t, md, "- **Analysis cost**: $0.0415")
	assert.Contains(t, md, "- **Title**: Acme Growth Platform")
	assert.Contains(t, md, "- **Age range**: 25-34")
	assert.Contains(t, md, "- no time for campaigns")
	assert.Contains(t, md, "### Main USP\n\nFastest onboarding in the category")
	assert.Contains(t, md, "**ATTENTION**\n- bold headline")
	assert.Contains(t, md, "### PAS elements\n\n- none identified")
	assert.Contains(t, md, "- **h2**: 2 heading(s), average length 14.5")
	assert.Contains(t, md, "- **Images with alt text**: 50%")
	assert.Contains(t, md, "- **Hero section**: yes")
	assert.Contains(t, md, "- **Testimonials**: no")
	assert.Contains(t, md, "1. Lead with onboarding speed.")
	assert.Contains(t, md, "- growth")
	assert.True(t, strings.HasSuffix(md, "---\n*Generated by scrutor*\n"))
}

func TestRenderIndividualReport_Fallbacks(t *testing.T) {
	analysis := &models.PageAnalysis{URL: "https://x.example.com"}
	md := renderIndividualReport(analysis, &models.PageContent{})

	assert.Contains(t, md, "- **Age range**: not identified")
	assert.Contains(t, md, "### Problems\n\n- none identified")
	assert.Contains(t, md, "no analysis output")
	assert.Contains(t, md, "no summary available")
	assert.Contains(t, md, "### Heading structure\n\n- none")
	assert.Contains(t, md, "### AIDA elements\n\n- none identified")
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "- none identified", formatList(nil))
	assert.Equal(t, "- one\n- two", formatList([]string{"one", "two"}))

	var many []string
	for i := 0; i < 15; i++ {
		many = append(many, fmt.Sprintf("item %d", i))
	}
	assert.Len(t, strings.Split(formatList(many), "\n"), listLimit)
}

func TestFormatStageMap(t *testing.T) {
	stages := map[string][]string{
		"attention": {"a"},
		"interest":  {},
		"action":    {"b"},
	}
	order := []string{"attention", "interest", "desire", "action"}

	assert.Equal(t, "**ATTENTION**\n- a\n\n**ACTION**\n- b", formatStageMap(stages, order))
	assert.Equal(t, "- none identified", formatStageMap(map[string][]string{}, order))
}

func TestRenderSummaryReport(t *testing.T) {
	succeeded := sampleAnalysis()
	failed := &models.PageAnalysis{
		URL:            "https://beta.example.com",
		ProcessingTime: time.Second,
		TotalCost:      0.01,
	}
	contents := map[string]*models.PageContent{
		succeeded.URL: sampleContent(),
	}

	md := renderSummaryReport([]*models.PageAnalysis{succeeded, failed}, contents)

	assert.True(t, strings.HasPrefix(md, "# Combined Analysis Report\n"))
	assert.Contains(t, md, "- **URLs analyzed**: 2")
	assert.Contains(t, md, "- **Succeeded**: 1")
	assert.Contains(t, md, "- **Failed**: 1")
	assert.Contains(t, md, "- **Success rate**: 50.0%")
	assert.Contains(t, md, "- **Total processing time**: 4.50s")
	assert.Contains(t, md, "- **Total analysis cost**: $0.0515")
	assert.Contains(t, md, "- **Dominant age range**: 25-34")
	assert.Contains(t, md, "- growth (1)")
	assert.Contains(t, md, "- AIDA: 1 (100.0%)")
	assert.Contains(t, md, "### Acme Growth Platform")
	assert.NotContains(t, md, "beta.example.com", "failed results stay out of the detail sections")
	assert.Contains(t, md, "- Pages with more than 3 CTAs: 1")
	assert.Contains(t, md, "- Pages with a form: 100.0%")
	assert.Contains(t, md, "## Suggested Article Angles")
}

func TestRenderSummaryReport_NoResults(t *testing.T) {
	md := renderSummaryReport(nil, nil)

	assert.Contains(t, md, "- **URLs analyzed**: 0")
	assert.Contains(t, md, "- **Success rate**: 0.0%")
	assert.Contains(t, md, "- no successful analyses")
	assert.Contains(t, md, "- no data")
	assert.Contains(t, md, "- no technique data")
}

func TestIndividualSummaries_TitleFallback(t *testing.T) {
	result := sampleAnalysis()
	out := individualSummaries([]*models.PageAnalysis{result}, nil)

	assert.Contains(t, out, "### Untitled page")
	assert.Contains(t, out, "- **Target**: 25-34 female marketing manager")
	assert.Contains(t, out, "- **Techniques**: AIDA, Social Proof")
}

func TestCountOccurrences(t *testing.T) {
	items := countOccurrences([]string{"b", "a", "b", "c", "a", "b"})

	assert.Equal(t, []countedItem{
		{value: "b", count: 3},
		{value: "a", count: 2},
		{value: "c", count: 1},
	}, items)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcde...", clip("abcdefgh", 5))
}
