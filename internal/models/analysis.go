package models

import "time"

// AnalysisResponse is the result of one model call. Immutable once produced.
type AnalysisResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	TokensUsed   int           `json:"tokens_used"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Cost         float64       `json:"cost"` // USD estimate from the per-model price table
	Latency      time.Duration `json:"latency"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PromptTemplate defines a named analysis prompt. Placeholders of the form
// {field} in UserPromptTemplate are substituted from a field map at call time.
type PromptTemplate struct {
	Name               string `toml:"name" json:"name"`
	Description        string `toml:"description" json:"description"`
	SystemPrompt       string `toml:"system_prompt" json:"system_prompt"`
	UserPromptTemplate string `toml:"user_prompt" json:"user_prompt"`
	Model              string `toml:"model" json:"model"`
	MaxTokens          int    `toml:"max_tokens" json:"max_tokens"`
}

// PersonaAnalysis captures the inferred target-audience profile
type PersonaAnalysis struct {
	AgeRange            string   `json:"age_range" yaml:"age_range"`
	Gender              string   `json:"gender" yaml:"gender"`
	Occupation          string   `json:"occupation" yaml:"occupation"`
	IncomeLevel         string   `json:"income_level" yaml:"income_level"`
	Lifestyle           string   `json:"lifestyle" yaml:"lifestyle"`
	Values              string   `json:"values" yaml:"values"`
	Problems            []string `json:"problems" yaml:"problems"`
	InformationBehavior string   `json:"information_behavior" yaml:"information_behavior"`
	DecisionFactors     []string `json:"decision_factors" yaml:"decision_factors"`
	RawAnalysis         string   `json:"raw_analysis" yaml:"-"`
}

// USPAnalysis captures the unique selling proposition and competitive positioning
type USPAnalysis struct {
	MainUSP               string   `json:"main_usp" yaml:"main_usp"`
	CompetitiveAdvantages []string `json:"competitive_advantages" yaml:"competitive_advantages"`
	UniqueValue           string   `json:"unique_value" yaml:"unique_value"`
	Evidence              []string `json:"evidence" yaml:"evidence"`
	KeyFeatures           []string `json:"key_features" yaml:"key_features"`
	RawAnalysis           string   `json:"raw_analysis" yaml:"-"`
}

// BenefitAnalysis captures functional and emotional benefit language
type BenefitAnalysis struct {
	FunctionalBenefits []string `json:"functional_benefits" yaml:"functional_benefits"`
	EmotionalBenefits  []string `json:"emotional_benefits" yaml:"emotional_benefits"`
	KeyKeywords        []string `json:"key_keywords" yaml:"key_keywords"`
	PowerWords         []string `json:"power_words" yaml:"power_words"`
	UrgencyElements    []string `json:"urgency_elements" yaml:"urgency_elements"`
	TrustElements      []string `json:"trust_elements" yaml:"trust_elements"`
	RawAnalysis        string   `json:"raw_analysis" yaml:"-"`
}

// CopywritingAnalysis tags the persuasion frameworks used on the page
type CopywritingAnalysis struct {
	AIDAElements    map[string][]string `json:"aida_elements" yaml:"aida_elements"`
	PASElements     map[string][]string `json:"pas_elements" yaml:"pas_elements"`
	BEAFElements    map[string][]string `json:"beaf_elements" yaml:"beaf_elements"`
	SocialProof     []string            `json:"social_proof" yaml:"social_proof"`
	Authority       []string            `json:"authority" yaml:"authority"`
	ScarcityUrgency []string            `json:"scarcity_urgency" yaml:"scarcity_urgency"`
	Storytelling    []string            `json:"storytelling" yaml:"storytelling"`
	TechniquesUsed  []string            `json:"techniques_used" yaml:"techniques_used"`
	RawAnalysis     string              `json:"raw_analysis" yaml:"-"`
}

// PageAnalysis is the combined multi-facet analysis result for one URL
type PageAnalysis struct {
	ID              string              `json:"id"` // analysis_{uuid}
	URL             string              `json:"url"`
	Timestamp       time.Time           `json:"timestamp"`
	Persona         PersonaAnalysis     `json:"persona"`
	USP             USPAnalysis         `json:"usp"`
	Benefits        BenefitAnalysis     `json:"benefits"`
	Copywriting     CopywritingAnalysis `json:"copywriting"`
	ContentQuality  ContentQuality      `json:"content_quality"`
	Keywords        []string            `json:"keywords"`
	AnalysisSummary string              `json:"analysis_summary"`
	ProcessingTime  time.Duration       `json:"processing_time"`
	TotalCost       float64             `json:"total_cost"`
	TokensUsed      int                 `json:"tokens_used"`
}
