package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/models"
)

// PromptManager loads named prompt templates from a directory of TOML files.
// The built-in marketing facet templates are written out on first run so
// users can inspect and edit them.
type PromptManager struct {
	templatesDir string
	logger       arbor.ILogger

	mu        sync.RWMutex
	templates map[string]*models.PromptTemplate
}

// NewPromptManager creates the manager and loads all templates, writing the
// built-in defaults first when their files are absent.
func NewPromptManager(templatesDir string, logger arbor.ILogger) (*PromptManager, error) {
	m := &PromptManager{
		templatesDir: templatesDir,
		logger:       logger,
		templates:    make(map[string]*models.PromptTemplate),
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load writes missing default templates and reads every .toml file in the
// templates directory. Unparseable files are skipped with a warning so one
// broken template does not take down the whole run.
func (m *PromptManager) Load() error {
	if err := os.MkdirAll(m.templatesDir, 0755); err != nil {
		return fmt.Errorf("failed to create templates directory %s: %w", m.templatesDir, err)
	}
	if err := m.writeDefaultTemplates(); err != nil {
		return err
	}

	entries, err := os.ReadDir(m.templatesDir)
	if err != nil {
		return fmt.Errorf("failed to read templates directory %s: %w", m.templatesDir, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates = make(map[string]*models.PromptTemplate)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}

		path := filepath.Join(m.templatesDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			m.logger.Warn().Err(err).Str("file", path).Msg("Failed to read prompt template")
			continue
		}

		var tpl models.PromptTemplate
		if err := toml.Unmarshal(data, &tpl); err != nil {
			m.logger.Warn().Err(err).Str("file", path).Msg("Failed to parse prompt template")
			continue
		}
		if tpl.Name == "" {
			m.logger.Warn().Str("file", path).Msg("Prompt template has no name, skipping")
			continue
		}

		m.templates[tpl.Name] = &tpl
	}

	m.logger.Debug().
		Int("count", len(m.templates)).
		Str("dir", m.templatesDir).
		Msg("Prompt templates loaded")

	return nil
}

// Get returns the named template
func (m *PromptManager) Get(name string) (*models.PromptTemplate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tpl, ok := m.templates[name]
	return tpl, ok
}

// List returns the loaded template names in sorted order
func (m *PromptManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// writeDefaultTemplates creates the built-in template files when absent.
// Existing files are never overwritten, so user edits survive restarts.
func (m *PromptManager) writeDefaultTemplates() error {
	for _, tpl := range defaultTemplates() {
		path := filepath.Join(m.templatesDir, tpl.Name+".toml")
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat template %s: %w", path, err)
		}

		data, err := toml.Marshal(tpl)
		if err != nil {
			return fmt.Errorf("failed to encode template %s: %w", tpl.Name, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write template %s: %w", path, err)
		}

		m.logger.Debug().Str("template", tpl.Name).Str("file", path).Msg("Wrote default prompt template")
	}
	return nil
}

// defaultTemplates returns the built-in marketing analysis facets. Templates
// leave Model empty so the configured default model applies; users can pin a
// model per template by editing the generated file.
func defaultTemplates() []*models.PromptTemplate {
	return []*models.PromptTemplate{
		{
			Name:         "persona_analysis",
			Description:  "Target customer persona hypothesis",
			SystemPrompt: "You are a marketing strategy expert. Analyze the provided landing page content and build a hypothesis of the target customer persona.",
			UserPromptTemplate: `Analyze the following landing page content and describe the expected target customer persona in detail.

[Page content]
Title: {title}
Meta description: {meta_description}
Headings: {headings}
Body text: {main_text}

Cover these angles:
1. Age range and gender
2. Occupation and income level
3. Lifestyle and values
4. Problems and frustrations they face
5. How they gather information
6. What drives their purchase decisions

Begin your reply with a fenced yaml code block using these keys:
age_range, gender, occupation, income_level, lifestyle, values,
problems (list), information_behavior, decision_factors (list).
Follow the block with your full written analysis.`,
			MaxTokens: 4000,
		},
		{
			Name:         "usp_analysis",
			Description:  "USP and competitive advantage extraction",
			SystemPrompt: "You are a marketing strategy expert. Extract the unique selling proposition and competitive advantages from the landing page.",
			UserPromptTemplate: `Analyze the following landing page content for its USP (unique selling proposition) and competitive positioning.

[Page content]
Title: {title}
Meta description: {meta_description}
Headings: {headings}
Body text: {main_text}
CTA elements: {cta_elements}

Cover these angles:
1. The main USP and core strengths
2. Differentiation from competitors
3. The unique value offered to customers
4. Evidence and proof points
5. Concrete features supporting the strengths

Begin your reply with a fenced yaml code block using these keys:
main_usp, competitive_advantages (list), unique_value, evidence (list),
key_features (list).
Follow the block with your full written analysis.`,
			MaxTokens: 4000,
		},
		{
			Name:         "benefit_analysis",
			Description:  "Benefit and appeal keyword extraction",
			SystemPrompt: "You are a copywriting expert. Extract the customer benefits and persuasive keywords from the landing page.",
			UserPromptTemplate: `Extract the customer benefits and effective appeal keywords from the following landing page content.

[Page content]
Title: {title}
Meta description: {meta_description}
Headings: {headings}
Body text: {main_text}

Cover these angles:
1. Concrete benefits the customer gains
2. Functional versus emotional benefits
3. Effective appeal keywords
4. Power words and emotional triggers
5. Urgency and scarcity signals
6. Trust-building elements

Begin your reply with a fenced yaml code block using these keys:
functional_benefits (list), emotional_benefits (list), key_keywords (list),
power_words (list), urgency_elements (list), trust_elements (list).
Follow the block with your full written analysis.`,
			MaxTokens: 4000,
		},
		{
			Name:         "copywriting_analysis",
			Description:  "Copywriting technique identification",
			SystemPrompt: "You are a copywriting expert. Identify the copywriting techniques used on the landing page.",
			UserPromptTemplate: `Identify the copywriting techniques used in the following landing page content.

[Page content]
Title: {title}
Meta description: {meta_description}
Headings: {headings}
Body text: {main_text}
CTA elements: {cta_elements}

Check for each of these techniques and point to the passages that use them:
1. AIDA (attention, interest, desire, action)
2. PAS (problem, agitation, solution)
3. BEAF (benefit, evidence, advantage, feature)
4. Social proof (reviews, testimonials, endorsements)
5. Authority signals
6. Scarcity and urgency
7. Storytelling

Begin your reply with a fenced yaml code block using these keys:
aida_elements (map of stage to list), pas_elements (map), beaf_elements (map),
social_proof (list), authority (list), scarcity_urgency (list),
storytelling (list), techniques_used (list).
Follow the block with your full written analysis.`,
			MaxTokens: 4000,
		},
	}
}
