package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFencedYAML(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "tagged fence",
			response: "prose\n```yaml\nkey: value\n```\ntail",
			want:     "\nkey: value\n",
		},
		{
			name:     "bare fence",
			response: "```\nkey: value\n```",
			want:     "\nkey: value\n",
		},
		{
			name:     "no fence",
			response: "plain text without any block",
			want:     "",
		},
		{
			name:     "unclosed fence",
			response: "```yaml\nkey: value",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractFencedYAML(tt.response))
		})
	}
}

func TestParseFencedYAML_InvalidBlock(t *testing.T) {
	var out map[string]string
	assert.False(t, parseFencedYAML("```yaml\nkey: [unclosed\n```", &out))
	assert.False(t, parseFencedYAML("no block at all", &out))
}

func TestParsePersona_YAMLBlock(t *testing.T) {
	persona := parsePersona(personaYAML)

	assert.Equal(t, "25-34", persona.AgeRange)
	assert.Equal(t, "female", persona.Gender)
	assert.Equal(t, "marketing manager", persona.Occupation)
	assert.Equal(t, "mid", persona.IncomeLevel)
	assert.Equal(t, "busy urban professional", persona.Lifestyle)
	assert.Equal(t, "efficiency", persona.Values)
	assert.Equal(t, []string{"no time for campaigns", "rising ad costs"}, persona.Problems)
	assert.Equal(t, "reads industry newsletters", persona.InformationBehavior)
	assert.Equal(t, []string{"roi", "ease of setup"}, persona.DecisionFactors)
	assert.Equal(t, personaYAML, persona.RawAnalysis)
}

func TestParsePersona_FallbackScansLines(t *testing.T) {
	text := "Age range: 25-34\nGender: female\nOccupation: designer\nIncome bracket: high\nLifestyle: urban professional"

	persona := parsePersona(text)

	assert.Equal(t, "25-34", persona.AgeRange)
	assert.Equal(t, "female", persona.Gender)
	assert.Equal(t, "designer", persona.Occupation)
	assert.Equal(t, "high", persona.IncomeLevel)
	assert.Equal(t, "urban professional", persona.Lifestyle)
	assert.Empty(t, persona.Problems)
	assert.Equal(t, text, persona.RawAnalysis)
}

func TestParseUSP_FallbackUsesFirstParagraph(t *testing.T) {
	text := "Speed is the product's core promise.\n\nKey advantage: one-click setup\nSupporting evidence: 10k active users\nStandout feature: offline mode"

	usp := parseUSP(text)

	assert.Equal(t, "Speed is the product's core promise.", usp.MainUSP)
	assert.Equal(t, []string{"Key advantage: oneclick setup"}, usp.CompetitiveAdvantages)
	assert.Equal(t, []string{"Supporting evidence: 10k active users"}, usp.Evidence)
	assert.Equal(t, []string{"Standout feature: offline mode"}, usp.KeyFeatures)
	assert.Equal(t, text, usp.RawAnalysis)
}

func TestParseBenefits_FallbackScopesByKeyword(t *testing.T) {
	text := "Functional: saves time daily\nEmotional: peace of mind\nKeyword: automation\nPower word: instantly\nUrgency: offer ends soon\nTrust: certified partners"

	benefits := parseBenefits(text)

	assert.Equal(t, []string{"Functional: saves time daily"}, benefits.FunctionalBenefits)
	assert.Equal(t, []string{"Emotional: peace of mind"}, benefits.EmotionalBenefits)
	assert.Equal(t, []string{"Keyword: automation"}, benefits.KeyKeywords)
	assert.Equal(t, []string{"Power word: instantly"}, benefits.PowerWords)
	assert.Equal(t, []string{"Urgency: offer ends soon"}, benefits.UrgencyElements)
	assert.Equal(t, []string{"Trust: certified partners"}, benefits.TrustElements)
}

func TestParseCopywriting_YAMLPreservesMissingStages(t *testing.T) {
	copywriting := parseCopywriting(copywritingYAML)

	assert.Equal(t, []string{"bold headline"}, copywriting.AIDAElements["attention"])
	assert.Equal(t, []string{"trial button"}, copywriting.AIDAElements["action"])
	assert.Contains(t, copywriting.AIDAElements, "interest")
	assert.Contains(t, copywriting.AIDAElements, "desire")
	assert.Empty(t, copywriting.AIDAElements["interest"])
	assert.Len(t, copywriting.PASElements, 3)
	assert.Equal(t, []string{"AIDA", "Social Proof"}, copywriting.TechniquesUsed)
	assert.Equal(t, []string{"customer logos"}, copywriting.SocialProof)
	assert.Equal(t, copywritingYAML, copywriting.RawAnalysis)
}

func TestParseCopywriting_FallbackDetectsTechniques(t *testing.T) {
	text := "The page leans on AIDA: attention comes from the bold claim.\nThe action step is the trial button.\nSocial proof: a testimonial wall.\nScarcity: only 5 seats left."

	copywriting := parseCopywriting(text)

	assert.Equal(t, []string{"AIDA", "Social Proof", "Scarcity/Urgency"}, copywriting.TechniquesUsed)
	assert.Equal(t, []string{"The page leans on AIDA: attention comes from the bold claim."}, copywriting.AIDAElements["attention"])
	assert.Equal(t, []string{"The action step is the trial button."}, copywriting.AIDAElements["action"])
	assert.Empty(t, copywriting.AIDAElements["interest"])
	assert.Equal(t, []string{"Social proof: a testimonial wall."}, copywriting.SocialProof)
	assert.Equal(t, []string{"Scarcity: only 5 seats left."}, copywriting.ScarcityUrgency)
	assert.Empty(t, copywriting.Authority)
}

func TestExtractListItems(t *testing.T) {
	t.Run("strips list markers", func(t *testing.T) {
		text := "・ benefit one\n• benefit two\n- benefit three\n* benefit four\n1. benefit five"
		items := extractListItems(text, []string{"benefit"})
		assert.Equal(t, []string{"benefit one", "benefit two", "benefit three", "benefit four", "benefit five"}, items)
	})

	t.Run("skips short fragments", func(t *testing.T) {
		items := extractListItems("tip\ntip: good", []string{"tip"})
		assert.Equal(t, []string{"tip: good"}, items)
	})

	t.Run("caps item count", func(t *testing.T) {
		var lines []string
		for i := 0; i < 12; i++ {
			lines = append(lines, "another benefit line with detail")
		}
		items := extractListItems(strings.Join(lines, "\n"), []string{"benefit"})
		assert.Len(t, items, listItemLimit)
	})

	t.Run("truncates long items", func(t *testing.T) {
		items := extractListItems("benefit "+strings.Repeat("x", 150), []string{"benefit"})
		assert.Len(t, items, 1)
		assert.Len(t, []rune(items[0]), listItemMaxRunes)
	})

	t.Run("no matches yields empty slice", func(t *testing.T) {
		items := extractListItems("nothing relevant here", []string{"benefit"})
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})
}

func TestValueAfterSeparator(t *testing.T) {
	assert.Equal(t, "25-34", valueAfterSeparator("age: 25-34"))
	assert.Equal(t, "thirties", valueAfterSeparator("age：thirties"))
	assert.Equal(t, "high", valueAfterSeparator("income = high"))
	assert.Equal(t, "", valueAfterSeparator("no separator on this line"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "héllo", truncate("héllo wörld", 5))
}
