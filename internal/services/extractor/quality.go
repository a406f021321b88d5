package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/scrutor/internal/models"
)

var keywordRe = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)

const keywordLimit = 50

// AnalyzeContentQuality computes heuristic quality metrics over an extracted
// page: length counts, heading structure, and basic on-page SEO checks.
func AnalyzeContentQuality(content *models.PageContent) models.ContentQuality {
	quality := models.ContentQuality{
		TitleLength:           len(content.Title),
		MetaDescriptionLength: len(content.MetaDescription),
		MainTextLength:        len(content.MainText),
		WordCount:             len(strings.Fields(content.MainText)),
		HeadingStructure:      make(map[string]models.HeadingStats),
		CTACount:              len(content.CTAElements),
		FormCount:             len(content.Forms),
		ImageCount:            len(content.Images),
		LinkCount:             len(content.Links),
	}

	for level, headings := range content.Headings {
		stats := models.HeadingStats{Count: len(headings)}
		if len(headings) > 0 {
			total := 0
			for _, h := range headings {
				total += len(h)
			}
			stats.AverageLength = float64(total) / float64(len(headings))
		}
		quality.HeadingStructure[level] = stats
	}

	withAlt := 0
	for _, img := range content.Images {
		if img.Alt != "" {
			withAlt++
		}
	}
	imageCount := len(content.Images)
	if imageCount == 0 {
		imageCount = 1
	}

	quality.SEO = models.SEOElements{
		HasTitle:                content.Title != "",
		HasMetaDescription:      content.MetaDescription != "",
		HasH1:                   len(content.Headings["h1"]) > 0,
		TitleLengthOK:           len(content.Title) >= 30 && len(content.Title) <= 60,
		MetaDescriptionLengthOK: len(content.MetaDescription) >= 120 && len(content.MetaDescription) <= 160,
		ImagesWithAlt:           float64(withAlt) / float64(imageCount),
	}

	return quality
}

// ExtractKeywords returns the most frequent latin words in the main text,
// ordered by frequency with ties keeping first appearance, capped at 50.
func ExtractKeywords(content *models.PageContent, minLength int) []string {
	if content.MainText == "" {
		return []string{}
	}

	words := keywordRe.FindAllString(strings.ToLower(content.MainText), -1)

	counts := make(map[string]int)
	order := []string{}
	for _, word := range words {
		if len(word) < minLength {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > keywordLimit {
		order = order[:keywordLimit]
	}

	return order
}
