package llm

import (
	"strings"
	"unicode/utf8"
)

// TextChunker splits oversized text into bounded, overlapping segments so
// each fits a single analysis call. Instances hold no mutable state and are
// safe for concurrent use.
type TextChunker struct {
	maxTokens     int
	overlapTokens int
}

// NewTextChunker creates a chunker with the given segment budget and overlap.
// Non-positive values fall back to 12000 and 200 tokens.
func NewTextChunker(maxTokens, overlapTokens int) *TextChunker {
	if maxTokens <= 0 {
		maxTokens = 12000
	}
	if overlapTokens <= 0 {
		overlapTokens = 200
	}
	return &TextChunker{
		maxTokens:     maxTokens,
		overlapTokens: overlapTokens,
	}
}

// EstimateTokens approximates the token count of mixed Latin/CJK text as
// three quarters of its rune count. The value is a heuristic, not a
// tokenizer result; only monotonicity is relied on.
func (c *TextChunker) EstimateTokens(text string) int {
	return int(float64(utf8.RuneCountInString(text)) * 0.75)
}

// Split divides text into ordered segments whose estimates stay within the
// chunker's budget. Text already under the budget is returned unchanged as a
// single segment. Each new segment is seeded with the maximal sentence
// suffix of the previous one that fits the overlap budget, so context
// carries across segment boundaries. A single sentence larger than the
// budget becomes its own oversized segment.
func (c *TextChunker) Split(text string) []string {
	if c.EstimateTokens(text) <= c.maxTokens {
		return []string{text}
	}

	units := c.splitSentences(text)
	if len(units) == 0 {
		return []string{text}
	}

	var segments []string
	current := ""
	currentTokens := 0

	for _, unit := range units {
		unitTokens := c.EstimateTokens(unit)

		if currentTokens+unitTokens > c.maxTokens {
			if current != "" {
				segments = append(segments, strings.TrimSpace(current))
				overlap := c.overlapText(current)
				current = overlap + unit
				currentTokens = c.EstimateTokens(current)
			} else {
				current = unit
				currentTokens = unitTokens
			}
		} else {
			current += unit
			currentTokens += unitTokens
		}
	}

	if strings.TrimSpace(current) != "" {
		segments = append(segments, strings.TrimSpace(current))
	}

	return segments
}

// splitSentences breaks text into sentence units on Latin and CJK terminal
// punctuation. The terminator stays with its sentence and a trailing space
// separates units when rejoined. A trailing fragment with no terminator is
// kept as its own unit so no content is lost.
func (c *TextChunker) splitSentences(text string) []string {
	var units []string
	var b strings.Builder

	for _, r := range text {
		b.WriteRune(r)
		if isSentenceTerminator(r) {
			if s := b.String(); strings.TrimSpace(s) != "" {
				units = append(units, s+" ")
			}
			b.Reset()
		}
	}

	if rest := b.String(); strings.TrimSpace(rest) != "" {
		units = append(units, rest)
	}

	return units
}

func isSentenceTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}

// overlapText returns the maximal suffix of sentence units whose combined
// estimate fits the overlap budget.
func (c *TextChunker) overlapText(segment string) string {
	units := c.splitSentences(segment)

	overlap := ""
	overlapTokens := 0
	for i := len(units) - 1; i >= 0; i-- {
		unitTokens := c.EstimateTokens(units[i])
		if overlapTokens+unitTokens > c.overlapTokens {
			break
		}
		overlap = units[i] + overlap
		overlapTokens += unitTokens
	}

	return overlap
}
