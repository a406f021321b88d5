package llm

import "strings"

// ModelPrice holds published USD rates per 1K tokens for one model family.
type ModelPrice struct {
	Input  float64
	Output float64
}

// PriceTable estimates call cost from per-model token rates. Models are
// matched exactly first, then by family prefix so dated releases resolve
// to their family rate. Unknown models cost 0.
type PriceTable struct {
	prices map[string]ModelPrice
}

// NewPriceTable returns the built-in price table.
func NewPriceTable() *PriceTable {
	return &PriceTable{
		prices: map[string]ModelPrice{
			// Anthropic, per 1K tokens
			"claude-haiku-3-5": {Input: 0.0008, Output: 0.004},
			"claude-sonnet-4":  {Input: 0.003, Output: 0.015},
			"claude-opus-4":    {Input: 0.015, Output: 0.075},
			// Google, per 1K tokens
			"gemini-2.0-flash": {Input: 0.0001, Output: 0.0004},
			"gemini-2.5-flash": {Input: 0.0003, Output: 0.0025},
			"gemini-2.5-pro":   {Input: 0.00125, Output: 0.01},
			"gemini-3-flash":   {Input: 0.0003, Output: 0.0025},
		},
	}
}

// Cost computes the dollar estimate for a call's token usage. Models not in
// the table are priced at zero rather than failing the call.
func (t *PriceTable) Cost(model string, inputTokens, outputTokens int) float64 {
	price, ok := t.lookup(model)
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*price.Input + float64(outputTokens)/1000*price.Output
}

func (t *PriceTable) lookup(model string) (ModelPrice, bool) {
	if price, ok := t.prices[model]; ok {
		return price, true
	}

	// Fall back to the longest family prefix so dated model identifiers
	// like claude-haiku-3-5-20241022 still price correctly.
	bestLen := 0
	var best ModelPrice
	for family, price := range t.prices {
		if strings.HasPrefix(model, family) && len(family) > bestLen {
			bestLen = len(family)
			best = price
		}
	}
	return best, bestLen > 0
}
