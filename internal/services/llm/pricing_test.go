package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceTable_Cost(t *testing.T) {
	table := NewPriceTable()

	tests := []struct {
		name         string
		model        string
		inputTokens  int
		outputTokens int
		want         float64
	}{
		{
			name:         "exact family match",
			model:        "claude-sonnet-4",
			inputTokens:  1000,
			outputTokens: 1000,
			want:         0.018,
		},
		{
			name:         "dated release resolves to family rate",
			model:        "claude-haiku-3-5-20241022",
			inputTokens:  2000,
			outputTokens: 500,
			want:         0.0036,
		},
		{
			name:         "gemini preview resolves to family rate",
			model:        "gemini-2.5-pro-preview-0325",
			inputTokens:  1000,
			outputTokens: 0,
			want:         0.00125,
		},
		{
			name:         "unknown model costs zero",
			model:        "o4-mini",
			inputTokens:  5000,
			outputTokens: 5000,
			want:         0,
		},
		{
			name:         "zero usage costs zero",
			model:        "claude-opus-4",
			inputTokens:  0,
			outputTokens: 0,
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := table.Cost(tt.model, tt.inputTokens, tt.outputTokens)
			assert.InDelta(t, tt.want, cost, 1e-12)
		})
	}
}

func TestPriceTable_CostAccumulatesPerDirection(t *testing.T) {
	table := NewPriceTable()

	inputOnly := table.Cost("gemini-2.0-flash", 10000, 0)
	outputOnly := table.Cost("gemini-2.0-flash", 0, 10000)

	assert.InDelta(t, 0.001, inputOnly, 1e-12)
	assert.InDelta(t, 0.004, outputOnly, 1e-12)
	assert.Greater(t, outputOnly, inputOnly)
}
