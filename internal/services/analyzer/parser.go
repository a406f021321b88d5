package analyzer

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/scrutor/internal/models"
)

const (
	listItemLimit    = 10
	listItemMaxRunes = 100
	mainUSPMaxRunes  = 200
)

var listMarkers = []string{"・", "•", "-", "*", "1.", "2.", "3.", "4.", "5."}

// extractFencedYAML returns the body of the reply's fenced code block, or ""
// when the reply has no usable fence.
func extractFencedYAML(response string) string {
	if strings.Contains(response, "```yaml") {
		start := strings.Index(response, "```yaml") + len("```yaml")
		end := strings.LastIndex(response, "```")
		if end > start {
			return response[start:end]
		}
	} else if strings.Contains(response, "```") {
		start := strings.Index(response, "```") + len("```")
		end := strings.LastIndex(response, "```")
		if end > start {
			return response[start:end]
		}
	}
	return ""
}

// parseFencedYAML unmarshals the reply's fenced block into out. Returns false
// when the reply has no block or the block is not valid YAML.
func parseFencedYAML(response string, out interface{}) bool {
	block := extractFencedYAML(response)
	if strings.TrimSpace(block) == "" {
		return false
	}
	return yaml.Unmarshal([]byte(block), out) == nil
}

// parsePersona reads the persona facet reply, falling back to line scanning
// when the model skipped the structured block.
func parsePersona(text string) models.PersonaAnalysis {
	persona := models.PersonaAnalysis{
		Problems:        []string{},
		DecisionFactors: []string{},
		RawAnalysis:     text,
	}

	candidate := persona
	if parseFencedYAML(text, &candidate) {
		return candidate
	}

	for _, line := range strings.Split(strings.ToLower(text), "\n") {
		switch {
		case strings.Contains(line, "age"):
			persona.AgeRange = valueAfterSeparator(line)
		case strings.Contains(line, "gender"):
			persona.Gender = valueAfterSeparator(line)
		case strings.Contains(line, "occupation"):
			persona.Occupation = valueAfterSeparator(line)
		case strings.Contains(line, "income"):
			persona.IncomeLevel = valueAfterSeparator(line)
		case strings.Contains(line, "lifestyle"):
			persona.Lifestyle = valueAfterSeparator(line)
		}
	}

	return persona
}

// parseUSP reads the USP facet reply, falling back to treating the first
// paragraph as the main proposition.
func parseUSP(text string) models.USPAnalysis {
	usp := models.USPAnalysis{
		CompetitiveAdvantages: []string{},
		Evidence:              []string{},
		KeyFeatures:           []string{},
		RawAnalysis:           text,
	}

	candidate := usp
	if parseFencedYAML(text, &candidate) {
		return candidate
	}

	if paragraphs := strings.Split(text, "\n\n"); len(paragraphs) > 0 {
		usp.MainUSP = truncate(strings.TrimSpace(paragraphs[0]), mainUSPMaxRunes)
	}
	usp.CompetitiveAdvantages = extractListItems(text, []string{"advantage", "differentiation"})
	usp.Evidence = extractListItems(text, []string{"evidence", "proof"})
	usp.KeyFeatures = extractListItems(text, []string{"feature"})

	return usp
}

// parseBenefits reads the benefit facet reply, falling back to keyword-scoped
// list extraction.
func parseBenefits(text string) models.BenefitAnalysis {
	benefits := models.BenefitAnalysis{
		FunctionalBenefits: []string{},
		EmotionalBenefits:  []string{},
		KeyKeywords:        []string{},
		PowerWords:         []string{},
		UrgencyElements:    []string{},
		TrustElements:      []string{},
		RawAnalysis:        text,
	}

	candidate := benefits
	if parseFencedYAML(text, &candidate) {
		return candidate
	}

	benefits.FunctionalBenefits = extractListItems(text, []string{"functional"})
	benefits.EmotionalBenefits = extractListItems(text, []string{"emotional"})
	benefits.KeyKeywords = extractListItems(text, []string{"keyword"})
	benefits.PowerWords = extractListItems(text, []string{"power word"})
	benefits.UrgencyElements = extractListItems(text, []string{"urgency"})
	benefits.TrustElements = extractListItems(text, []string{"trust"})

	return benefits
}

// parseCopywriting reads the copywriting facet reply. Framework stage maps
// are pre-seeded so a partial YAML reply still yields every stage key.
func parseCopywriting(text string) models.CopywritingAnalysis {
	candidate := newCopywriting(text)
	if parseFencedYAML(text, &candidate) {
		return candidate
	}

	copywriting := newCopywriting(text)
	lower := strings.ToLower(text)
	techniques := []string{}

	if strings.Contains(lower, "aida") {
		techniques = append(techniques, "AIDA")
		copywriting.AIDAElements = map[string][]string{
			"attention": extractListItems(text, []string{"attention"}),
			"interest":  extractListItems(text, []string{"interest"}),
			"desire":    extractListItems(text, []string{"desire"}),
			"action":    extractListItems(text, []string{"action"}),
		}
	}
	if strings.Contains(lower, "pas") {
		techniques = append(techniques, "PAS")
		copywriting.PASElements = map[string][]string{
			"problem":   extractListItems(text, []string{"problem"}),
			"agitation": extractListItems(text, []string{"agitation"}),
			"solution":  extractListItems(text, []string{"solution"}),
		}
	}
	if strings.Contains(lower, "beaf") {
		techniques = append(techniques, "BEAF")
	}
	if strings.Contains(lower, "social proof") {
		techniques = append(techniques, "Social Proof")
		copywriting.SocialProof = extractListItems(text, []string{"social proof"})
	}
	if strings.Contains(lower, "authority") {
		techniques = append(techniques, "Authority")
		copywriting.Authority = extractListItems(text, []string{"authority"})
	}
	if strings.Contains(lower, "scarcity") || strings.Contains(lower, "urgency") {
		techniques = append(techniques, "Scarcity/Urgency")
		copywriting.ScarcityUrgency = extractListItems(text, []string{"scarcity", "urgency"})
	}

	copywriting.TechniquesUsed = techniques

	return copywriting
}

func newCopywriting(text string) models.CopywritingAnalysis {
	return models.CopywritingAnalysis{
		AIDAElements:    emptyStageMap("attention", "interest", "desire", "action"),
		PASElements:     emptyStageMap("problem", "agitation", "solution"),
		BEAFElements:    emptyStageMap("benefit", "evidence", "advantage", "feature"),
		SocialProof:     []string{},
		Authority:       []string{},
		ScarcityUrgency: []string{},
		Storytelling:    []string{},
		TechniquesUsed:  []string{},
		RawAnalysis:     text,
	}
}

func emptyStageMap(stages ...string) map[string][]string {
	m := make(map[string][]string, len(stages))
	for _, stage := range stages {
		m[stage] = []string{}
	}
	return m
}

// extractListItems collects lines mentioning any of the keywords, stripped of
// list markers, skipping fragments too short to be a real point.
func extractListItems(text string, keywords []string) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		if len(items) >= listItemLimit {
			break
		}
		lower := strings.ToLower(line)
		matched := false
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		cleaned := line
		for _, marker := range listMarkers {
			cleaned = strings.ReplaceAll(cleaned, marker, "")
		}
		cleaned = strings.TrimSpace(cleaned)
		if len(cleaned) > 3 {
			items = append(items, truncate(cleaned, listItemMaxRunes))
		}
	}
	return items
}

// valueAfterSeparator returns the trimmed text after the first key/value
// separator on the line, or "" when the line has none.
func valueAfterSeparator(line string) string {
	for _, sep := range []string{":", "：", "="} {
		if idx := strings.Index(line, sep); idx >= 0 {
			return strings.TrimSpace(line[idx+len(sep):])
		}
	}
	return ""
}

// truncate caps s at max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
