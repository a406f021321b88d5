package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/scrutor/internal/models"
)

const (
	notIdentified  = "not identified"
	noAnalysisText = "no analysis output"

	listLimit          = 10
	reportKeywordLimit = 20
	mainUSPPreview     = 100
)

// renderIndividualReport builds the per-URL markdown report from a completed
// analysis and its source content.
func renderIndividualReport(analysis *models.PageAnalysis, content *models.PageContent) string {
	if content == nil {
		// Re-render from the archive may have no content object.
		content = &models.PageContent{}
	}

	var sb strings.Builder

	sb.WriteString("# URL Analysis Report\n\n")

	// Basic information
	sb.WriteString("## Basic Information\n\n")
	fmt.Fprintf(&sb, "- **URL**: %s\n", analysis.URL)
	fmt.Fprintf(&sb, "- **Analyzed**: %s\n", analysis.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **Processing time**: %.2fs\n", analysis.ProcessingTime.Seconds())
	fmt.Fprintf(&sb, "- **Analysis cost**: $%.4f\n\n", analysis.TotalCost)

	// Page overview
	sb.WriteString("## Page Overview\n\n")
	fmt.Fprintf(&sb, "- **Title**: %s\n", content.Title)
	fmt.Fprintf(&sb, "- **Meta description**: %s\n", content.MetaDescription)
	fmt.Fprintf(&sb, "- **Word count**: %d\n", analysis.ContentQuality.WordCount)
	fmt.Fprintf(&sb, "- **CTA count**: %d\n", analysis.ContentQuality.CTACount)
	fmt.Fprintf(&sb, "- **Form count**: %d\n\n", analysis.ContentQuality.FormCount)

	// Persona
	persona := analysis.Persona
	sb.WriteString("## Persona Analysis\n\n")
	sb.WriteString("### Target profile\n\n")
	fmt.Fprintf(&sb, "- **Age range**: %s\n", fallback(persona.AgeRange, notIdentified))
	fmt.Fprintf(&sb, "- **Gender**: %s\n", fallback(persona.Gender, notIdentified))
	fmt.Fprintf(&sb, "- **Occupation**: %s\n", fallback(persona.Occupation, notIdentified))
	fmt.Fprintf(&sb, "- **Income level**: %s\n", fallback(persona.IncomeLevel, notIdentified))
	fmt.Fprintf(&sb, "- **Lifestyle**: %s\n\n", fallback(persona.Lifestyle, notIdentified))
	sb.WriteString("### Problems\n\n")
	sb.WriteString(formatList(persona.Problems) + "\n\n")
	sb.WriteString("### Decision factors\n\n")
	sb.WriteString(formatList(persona.DecisionFactors) + "\n\n")
	sb.WriteString("### Full reply\n\n")
	sb.WriteString(fallback(persona.RawAnalysis, noAnalysisText) + "\n\n")

	// USP
	usp := analysis.USP
	sb.WriteString("## USP Analysis\n\n")
	sb.WriteString("### Main USP\n\n")
	sb.WriteString(fallback(usp.MainUSP, notIdentified) + "\n\n")
	sb.WriteString("### Competitive advantages\n\n")
	sb.WriteString(formatList(usp.CompetitiveAdvantages) + "\n\n")
	sb.WriteString("### Unique value\n\n")
	sb.WriteString(fallback(usp.UniqueValue, notIdentified) + "\n\n")
	sb.WriteString("### Evidence\n\n")
	sb.WriteString(formatList(usp.Evidence) + "\n\n")
	sb.WriteString("### Full reply\n\n")
	sb.WriteString(fallback(usp.RawAnalysis, noAnalysisText) + "\n\n")

	// Benefits
	benefits := analysis.Benefits
	sb.WriteString("## Benefit Analysis\n\n")
	sb.WriteString("### Functional benefits\n\n")
	sb.WriteString(formatList(benefits.FunctionalBenefits) + "\n\n")
	sb.WriteString("### Emotional benefits\n\n")
	sb.WriteString(formatList(benefits.EmotionalBenefits) + "\n\n")
	sb.WriteString("### Key keywords\n\n")
	sb.WriteString(formatList(benefits.KeyKeywords) + "\n\n")
	sb.WriteString("### Power words\n\n")
	sb.WriteString(formatList(benefits.PowerWords) + "\n\n")
	sb.WriteString("### Urgency elements\n\n")
	sb.WriteString(formatList(benefits.UrgencyElements) + "\n\n")
	sb.WriteString("### Trust elements\n\n")
	sb.WriteString(formatList(benefits.TrustElements) + "\n\n")
	sb.WriteString("### Full reply\n\n")
	sb.WriteString(fallback(benefits.RawAnalysis, noAnalysisText) + "\n\n")

	// Copywriting
	copywriting := analysis.Copywriting
	sb.WriteString("## Copywriting Analysis\n\n")
	sb.WriteString("### Techniques used\n\n")
	sb.WriteString(formatList(copywriting.TechniquesUsed) + "\n\n")
	sb.WriteString("### AIDA elements\n\n")
	sb.WriteString(formatStageMap(copywriting.AIDAElements, []string{"attention", "interest", "desire", "action"}) + "\n\n")
	sb.WriteString("### PAS elements\n\n")
	sb.WriteString(formatStageMap(copywriting.PASElements, []string{"problem", "agitation", "solution"}) + "\n\n")
	sb.WriteString("### Social proof\n\n")
	sb.WriteString(formatList(copywriting.SocialProof) + "\n\n")
	sb.WriteString("### Authority\n\n")
	sb.WriteString(formatList(copywriting.Authority) + "\n\n")
	sb.WriteString("### Scarcity and urgency\n\n")
	sb.WriteString(formatList(copywriting.ScarcityUrgency) + "\n\n")
	sb.WriteString("### Full reply\n\n")
	sb.WriteString(fallback(copywriting.RawAnalysis, noAnalysisText) + "\n\n")

	// Content quality
	quality := analysis.ContentQuality
	sb.WriteString("## Content Quality\n\n")
	sb.WriteString("### SEO checks\n\n")
	fmt.Fprintf(&sb, "- **Has title**: %s\n", boolWord(quality.SEO.HasTitle))
	fmt.Fprintf(&sb, "- **Has meta description**: %s\n", boolWord(quality.SEO.HasMetaDescription))
	fmt.Fprintf(&sb, "- **Has H1**: %s\n", boolWord(quality.SEO.HasH1))
	fmt.Fprintf(&sb, "- **Title length in range**: %s\n", boolWord(quality.SEO.TitleLengthOK))
	fmt.Fprintf(&sb, "- **Meta description length in range**: %s\n", boolWord(quality.SEO.MetaDescriptionLengthOK))
	fmt.Fprintf(&sb, "- **Images with alt text**: %.0f%%\n\n", quality.SEO.ImagesWithAlt*100)
	sb.WriteString("### Heading structure\n\n")
	sb.WriteString(formatHeadingStats(quality.HeadingStructure) + "\n\n")
	sb.WriteString("### Landing page signals\n\n")
	indicators := content.PageStructure.LPIndicators
	fmt.Fprintf(&sb, "- **Hero section**: %s\n", boolWord(indicators.HasHeroSection))
	fmt.Fprintf(&sb, "- **Pricing**: %s\n", boolWord(indicators.HasPricing))
	fmt.Fprintf(&sb, "- **Testimonials**: %s\n", boolWord(indicators.HasTestimonials))
	fmt.Fprintf(&sb, "- **Feature sections**: %s\n", boolWord(indicators.HasFeatures))
	fmt.Fprintf(&sb, "- **Forms**: %d\n", indicators.FormCount)
	fmt.Fprintf(&sb, "- **CTA buttons**: %d\n\n", indicators.CTAButtonCount)

	// Writing notes
	sb.WriteString("## Article Writing Notes\n\n")
	sb.WriteString(fallback(analysis.AnalysisSummary, "no summary available") + "\n\n")

	// Keywords
	sb.WriteString("## Extracted Keywords\n\n")
	keywords := analysis.Keywords
	if len(keywords) > reportKeywordLimit {
		keywords = keywords[:reportKeywordLimit]
	}
	sb.WriteString(formatList(keywords) + "\n\n")

	sb.WriteString("---\n*Generated by scrutor*\n")

	return sb.String()
}

// renderSummaryReport builds the combined markdown report over a run's
// results. Contents are looked up by URL; a missing entry only loses the
// page title.
func renderSummaryReport(results []*models.PageAnalysis, contents map[string]*models.PageContent) string {
	succeeded := make([]*models.PageAnalysis, 0, len(results))
	for _, result := range results {
		if result.AnalysisSummary != "" {
			succeeded = append(succeeded, result)
		}
	}

	var totalTime time.Duration
	totalCost := 0.0
	for _, result := range results {
		totalTime += result.ProcessingTime
		totalCost += result.TotalCost
	}
	successRate := 0.0
	if len(results) > 0 {
		successRate = float64(len(succeeded)) / float64(len(results)) * 100
	}

	var sb strings.Builder
	sb.WriteString("# Combined Analysis Report\n\n")

	sb.WriteString("## Run Overview\n\n")
	fmt.Fprintf(&sb, "- **Generated**: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- **URLs analyzed**: %d\n", len(results))
	fmt.Fprintf(&sb, "- **Total processing time**: %.2fs\n", totalTime.Seconds())
	fmt.Fprintf(&sb, "- **Total analysis cost**: $%.4f\n\n", totalCost)

	sb.WriteString("## Outcome\n\n")
	fmt.Fprintf(&sb, "- **Succeeded**: %d\n", len(succeeded))
	fmt.Fprintf(&sb, "- **Failed**: %d\n", len(results)-len(succeeded))
	fmt.Fprintf(&sb, "- **Success rate**: %.1f%%\n\n", successRate)

	sb.WriteString("### Common persona trends\n\n")
	sb.WriteString(commonPersonaTrends(succeeded) + "\n\n")

	sb.WriteString("### Common USP phrasing\n\n")
	sb.WriteString(commonUSPWords(succeeded) + "\n\n")

	sb.WriteString("### Frequent keywords\n\n")
	sb.WriteString(commonKeywords(succeeded) + "\n\n")

	sb.WriteString("### Copy techniques observed\n\n")
	sb.WriteString(commonTechniques(succeeded) + "\n\n")

	sb.WriteString("## Individual Results\n\n")
	sb.WriteString(individualSummaries(succeeded, contents))

	sb.WriteString("## Conversion Signals\n\n")
	sb.WriteString(conversionSignals(succeeded) + "\n\n")

	sb.WriteString("## Suggested Article Angles\n\n")
	sb.WriteString(articleAngles(succeeded) + "\n\n")

	sb.WriteString("---\n*Generated by scrutor*\n")

	return sb.String()
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

func boolWord(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// formatList renders items as markdown bullets, capped so a runaway reply
// cannot flood the report.
func formatList(items []string) string {
	if len(items) == 0 {
		return "- none identified"
	}
	if len(items) > listLimit {
		items = items[:listLimit]
	}
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- " + item)
	}
	return sb.String()
}

// formatStageMap renders a framework stage map in the given stage order,
// skipping stages the analysis found nothing for.
func formatStageMap(stages map[string][]string, order []string) string {
	var sb strings.Builder
	for _, stage := range order {
		items := stages[stage]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "**%s**\n%s\n\n", strings.ToUpper(stage), formatList(items))
	}
	if sb.Len() == 0 {
		return "- none identified"
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatHeadingStats(structure map[string]models.HeadingStats) string {
	var sb strings.Builder
	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		stats, ok := structure[tag]
		if !ok || stats.Count == 0 {
			continue
		}
		fmt.Fprintf(&sb, "- **%s**: %d heading(s), average length %.1f\n", tag, stats.Count, stats.AverageLength)
	}
	if sb.Len() == 0 {
		return "- none"
	}
	return strings.TrimRight(sb.String(), "\n")
}

type countedItem struct {
	value string
	count int
}

// countOccurrences tallies values, most frequent first, first-seen order on
// ties.
func countOccurrences(values []string) []countedItem {
	counts := make(map[string]int)
	order := []string{}
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	items := make([]countedItem, len(order))
	for i, v := range order {
		items[i] = countedItem{value: v, count: counts[v]}
	}
	return items
}

func mostCommon(values []string) string {
	items := countOccurrences(values)
	if len(items) == 0 {
		return ""
	}
	return items[0].value
}

func commonPersonaTrends(results []*models.PageAnalysis) string {
	if len(results) == 0 {
		return "- no successful analyses"
	}

	var ages, occupations []string
	for _, r := range results {
		if r.Persona.AgeRange != "" {
			ages = append(ages, r.Persona.AgeRange)
		}
		if r.Persona.Occupation != "" {
			occupations = append(occupations, r.Persona.Occupation)
		}
	}

	var sb strings.Builder
	if age := mostCommon(ages); age != "" {
		fmt.Fprintf(&sb, "- **Dominant age range**: %s\n", age)
	}
	if occupation := mostCommon(occupations); occupation != "" {
		fmt.Fprintf(&sb, "- **Dominant occupation**: %s\n", occupation)
	}
	if sb.Len() == 0 {
		return "- no common trend"
	}
	return strings.TrimRight(sb.String(), "\n")
}

// commonUSPWords surfaces the words that recur across the main USPs, looking
// at each proposition's opening words only.
func commonUSPWords(results []*models.PageAnalysis) string {
	var words []string
	for _, r := range results {
		if r.USP.MainUSP == "" {
			continue
		}
		fields := strings.Fields(r.USP.MainUSP)
		if len(fields) > 10 {
			fields = fields[:10]
		}
		for _, word := range fields {
			if len(word) > 2 {
				words = append(words, word)
			}
		}
	}

	items := countOccurrences(words)
	if len(items) == 0 {
		return "- no USP data"
	}
	if len(items) > 5 {
		items = items[:5]
	}

	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s (%d)\n", item.value, item.count)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func commonKeywords(results []*models.PageAnalysis) string {
	var keywords []string
	for _, r := range results {
		top := r.Keywords
		if len(top) > 10 {
			top = top[:10]
		}
		keywords = append(keywords, top...)
	}

	items := countOccurrences(keywords)
	if len(items) == 0 {
		return "- no keywords"
	}
	if len(items) > 10 {
		items = items[:10]
	}

	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s (%d)\n", item.value, item.count)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func commonTechniques(results []*models.PageAnalysis) string {
	if len(results) == 0 {
		return "- no technique data"
	}

	var techniques []string
	for _, r := range results {
		techniques = append(techniques, r.Copywriting.TechniquesUsed...)
	}

	items := countOccurrences(techniques)
	if len(items) == 0 {
		return "- no technique data"
	}

	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s: %d (%.1f%%)\n", item.value, item.count,
			float64(item.count)/float64(len(results))*100)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func individualSummaries(results []*models.PageAnalysis, contents map[string]*models.PageContent) string {
	if len(results) == 0 {
		return "- no successful analyses\n\n"
	}

	var sb strings.Builder
	for _, result := range results {
		title := "Untitled page"
		if content, ok := contents[result.URL]; ok && content.Title != "" {
			title = content.Title
		}

		mainUSP := notIdentified
		if result.USP.MainUSP != "" {
			mainUSP = clip(result.USP.MainUSP, mainUSPPreview)
		}

		parts := []string{}
		for _, p := range []string{result.Persona.AgeRange, result.Persona.Gender, result.Persona.Occupation} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		target := notIdentified
		if len(parts) > 0 {
			target = strings.Join(parts, " ")
		}

		techniques := "none"
		if len(result.Copywriting.TechniquesUsed) > 0 {
			techniques = strings.Join(result.Copywriting.TechniquesUsed, ", ")
		}

		fmt.Fprintf(&sb, "### %s\n\n", title)
		fmt.Fprintf(&sb, "- **URL**: %s\n", result.URL)
		fmt.Fprintf(&sb, "- **Processing time**: %.2fs\n", result.ProcessingTime.Seconds())
		fmt.Fprintf(&sb, "- **Main USP**: %s\n", mainUSP)
		fmt.Fprintf(&sb, "- **Target**: %s\n", target)
		fmt.Fprintf(&sb, "- **Techniques**: %s\n\n", techniques)
	}
	return sb.String()
}

func conversionSignals(results []*models.PageAnalysis) string {
	if len(results) == 0 {
		return "- no data"
	}

	highCTA := 0
	withForm := 0
	for _, r := range results {
		if r.ContentQuality.CTACount > 3 {
			highCTA++
		}
		if r.ContentQuality.FormCount > 0 {
			withForm++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "- Pages with more than 3 CTAs: %d\n", highCTA)
	fmt.Fprintf(&sb, "- Pages with a form: %.1f%%", float64(withForm)/float64(len(results))*100)
	return sb.String()
}

func articleAngles(results []*models.PageAnalysis) string {
	angles := []string{
		"- Lead with the emotional benefits that resonate with the target persona",
		"- Build comparison content around the competitive advantages",
		"- Reuse the social proof the pages lean on",
		"- Mirror the scarcity and urgency cues where they fit",
	}

	if len(results) > 0 {
		total := 0
		for _, r := range results {
			total += len(r.Copywriting.TechniquesUsed)
		}
		if float64(total)/float64(len(results)) > 2 {
			angles = append(angles, "- Combine several copy frameworks per article; these pages do")
		}
	}

	return strings.Join(angles, "\n")
}

// clip caps s at max runes, marking the cut.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
