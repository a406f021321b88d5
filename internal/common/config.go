package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment" validate:"omitempty,oneof=development production"`
	Queue       QueueConfig     `toml:"queue"`
	Processor   ProcessorConfig `toml:"processor"`
	LLM         LLMConfig       `toml:"llm"`
	Extractor   ExtractorConfig `toml:"extractor"`
	Storage     StorageConfig   `toml:"storage"`
	Report      ReportConfig    `toml:"report"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// QueueConfig controls the job queue's data layout and retry budget
type QueueConfig struct {
	DataDir    string `toml:"data_dir"`                    // Root for input/output/temp directories
	MaxRetries int    `toml:"max_retries" validate:"gte=0"` // Retry budget assigned to new jobs
}

// InputDir returns the directory for import files
func (q *QueueConfig) InputDir() string { return filepath.Join(q.DataDir, "input") }

// OutputDir returns the directory for exported results and reports
func (q *QueueConfig) OutputDir() string { return filepath.Join(q.DataDir, "output") }

// TempDir returns the directory for transient state
func (q *QueueConfig) TempDir() string { return filepath.Join(q.DataDir, "temp") }

// SnapshotPath returns the fixed location of the persisted queue snapshot
func (q *QueueConfig) SnapshotPath() string { return filepath.Join(q.TempDir(), "job_progress.json") }

// ProcessorConfig controls job execution
type ProcessorConfig struct {
	MaxConcurrent int  `toml:"max_concurrent" validate:"gte=1"` // Bound on simultaneously in-flight jobs
	Parallel      bool `toml:"parallel"`                        // Run the work set concurrently
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderClaude uses the Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderGemini uses the Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key (ANTHROPIC_API_KEY env takes precedence)
	Model       string  `toml:"model"`       // Model for analysis operations
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Gemini API key (GEMINI_API_KEY env takes precedence)
	Model       string  `toml:"model"`       // Model for analysis operations
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// LLMConfig contains unified configuration for the analysis client
type LLMConfig struct {
	DefaultProvider    LLMProvider  `toml:"default_provider" validate:"omitempty,oneof=claude gemini"`
	DefaultModel       string       `toml:"default_model"`        // Model used when a template names none
	MaxTokens          int          `toml:"max_tokens" validate:"gte=1"`
	RequestsPerMinute  int          `toml:"requests_per_minute" validate:"gte=1"`
	TokensPerMinute    int          `toml:"tokens_per_minute" validate:"gte=1"`
	ChunkMaxTokens     int          `toml:"chunk_max_tokens" validate:"gte=1"`
	ChunkOverlapTokens int          `toml:"chunk_overlap_tokens" validate:"gte=0"`
	TemplatesDir       string       `toml:"templates_dir"` // Directory of prompt template files (TOML)
	Claude             ClaudeConfig `toml:"claude"`
	Gemini             GeminiConfig `toml:"gemini"`
}

// ExtractorConfig contains headless browser extraction configuration
type ExtractorConfig struct {
	UserAgent      string        `toml:"user_agent"`
	BrowserTimeout time.Duration `toml:"browser_timeout"` // Page load timeout
	RenderWait     time.Duration `toml:"render_wait"`     // Extra wait after load for JavaScript rendering
	Headless       bool          `toml:"headless"`
}

// StorageConfig holds the result archive configuration
type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// ReportConfig controls report rendering
type ReportConfig struct {
	OutputDir string   `toml:"output_dir"`
	Formats   []string `toml:"formats" validate:"dive,oneof=markdown json pdf"`
}

// SchedulerConfig controls the watch-mode retry sweep
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron format with seconds field
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string   `toml:"format" validate:"omitempty,oneof=text json"`
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in scrutor.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Queue: QueueConfig{
			DataDir:    "./data",
			MaxRetries: 3,
		},
		Processor: ProcessorConfig{
			MaxConcurrent: 3,
			Parallel:      false,
		},
		LLM: LLMConfig{
			DefaultProvider:    LLMProviderClaude,
			DefaultModel:       "claude-haiku-3-5-20241022",
			MaxTokens:          4000,
			RequestsPerMinute:  60,     // Request ceiling against the external API
			TokensPerMinute:    200000, // Rolling 60s token budget
			ChunkMaxTokens:     12000,
			ChunkOverlapTokens: 200,
			TemplatesDir:       "./prompt-templates",
			Claude: ClaudeConfig{
				APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
				Model:       "claude-haiku-3-5-20241022",
				Timeout:     "5m",
				Temperature: 0.7,
			},
			Gemini: GeminiConfig{
				APIKey:      "", // User must provide API key (GEMINI_API_KEY or config)
				Model:       "gemini-3-flash-preview",
				Timeout:     "5m",
				Temperature: 0.7,
			},
		},
		Extractor: ExtractorConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			BrowserTimeout: 30 * time.Second,
			RenderWait:     2 * time.Second,
			Headless:       true,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/archive",
			},
		},
		Report: ReportConfig{
			OutputDir: "./data/output",
			Formats:   []string{"markdown", "json"},
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,             // Disabled by default - user must explicitly opt-in
			Schedule: "0 */10 * * * *", // Every 10 minutes (cron format with seconds)
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: SCRUTOR_ENV, fallback: GO_ENV)
	if env := os.Getenv("SCRUTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Queue configuration
	if dataDir := os.Getenv("SCRUTOR_DATA_DIR"); dataDir != "" {
		config.Queue.DataDir = dataDir
	}
	if maxRetries := os.Getenv("SCRUTOR_QUEUE_MAX_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.Queue.MaxRetries = mr
		}
	}

	// Processor configuration
	if maxConcurrent := os.Getenv("SCRUTOR_PROCESSOR_MAX_CONCURRENT"); maxConcurrent != "" {
		if mc, err := strconv.Atoi(maxConcurrent); err == nil {
			config.Processor.MaxConcurrent = mc
		}
	}
	if parallel := os.Getenv("SCRUTOR_PROCESSOR_PARALLEL"); parallel != "" {
		if p, err := strconv.ParseBool(parallel); err == nil {
			config.Processor.Parallel = p
		}
	}

	// LLM configuration
	if provider := os.Getenv("SCRUTOR_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if model := os.Getenv("SCRUTOR_LLM_DEFAULT_MODEL"); model != "" {
		config.LLM.DefaultModel = model
	}
	if rpm := os.Getenv("SCRUTOR_LLM_REQUESTS_PER_MINUTE"); rpm != "" {
		if r, err := strconv.Atoi(rpm); err == nil {
			config.LLM.RequestsPerMinute = r
		}
	}
	if tpm := os.Getenv("SCRUTOR_LLM_TOKENS_PER_MINUTE"); tpm != "" {
		if t, err := strconv.Atoi(tpm); err == nil {
			config.LLM.TokensPerMinute = t
		}
	}
	if templatesDir := os.Getenv("SCRUTOR_LLM_TEMPLATES_DIR"); templatesDir != "" {
		config.LLM.TemplatesDir = templatesDir
	}
	if apiKey := os.Getenv("SCRUTOR_CLAUDE_API_KEY"); apiKey != "" {
		config.LLM.Claude.APIKey = apiKey
	}
	if model := os.Getenv("SCRUTOR_CLAUDE_MODEL"); model != "" {
		config.LLM.Claude.Model = model
	}
	if apiKey := os.Getenv("SCRUTOR_GEMINI_API_KEY"); apiKey != "" {
		config.LLM.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("SCRUTOR_GEMINI_MODEL"); model != "" {
		config.LLM.Gemini.Model = model
	}

	// Extractor configuration
	if userAgent := os.Getenv("SCRUTOR_EXTRACTOR_USER_AGENT"); userAgent != "" {
		config.Extractor.UserAgent = userAgent
	}
	if browserTimeout := os.Getenv("SCRUTOR_EXTRACTOR_BROWSER_TIMEOUT"); browserTimeout != "" {
		if bt, err := time.ParseDuration(browserTimeout); err == nil {
			config.Extractor.BrowserTimeout = bt
		}
	}
	if renderWait := os.Getenv("SCRUTOR_EXTRACTOR_RENDER_WAIT"); renderWait != "" {
		if rw, err := time.ParseDuration(renderWait); err == nil {
			config.Extractor.RenderWait = rw
		}
	}
	if headless := os.Getenv("SCRUTOR_EXTRACTOR_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Extractor.Headless = h
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCRUTOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Report configuration
	if outputDir := os.Getenv("SCRUTOR_REPORT_OUTPUT_DIR"); outputDir != "" {
		config.Report.OutputDir = outputDir
	}

	// Scheduler configuration
	if enabled := os.Getenv("SCRUTOR_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("SCRUTOR_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}

	// Logging configuration
	if level := os.Getenv("SCRUTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SCRUTOR_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SCRUTOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Flags have the highest priority.
func ApplyFlagOverrides(config *Config, concurrency int, parallel bool, dataDir string) {
	if concurrency > 0 {
		config.Processor.MaxConcurrent = concurrency
	}
	if parallel {
		config.Processor.Parallel = true
	}
	if dataDir != "" {
		config.Queue.DataDir = dataDir
	}
}

// Validate checks the configuration using go-playground/validator tags plus
// schedule syntax. Returns the first failure found.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler configuration: %w", err)
		}
	}

	return nil
}

// ValidateSchedule validates a cron schedule expression with a seconds field
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return nil
}

// ResolveAPIKey resolves a provider API key with environment variable priority.
// Resolution order: standard env var -> SCRUTOR_* env var -> config fallback -> error.
func ResolveAPIKey(provider LLMProvider, configFallback string) (string, error) {
	var envVars []string
	switch provider {
	case LLMProviderClaude:
		envVars = []string{"ANTHROPIC_API_KEY", "SCRUTOR_CLAUDE_API_KEY"}
	case LLMProviderGemini:
		envVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "SCRUTOR_GEMINI_API_KEY"}
	default:
		return "", fmt.Errorf("unknown provider %q", provider)
	}

	for _, name := range envVars {
		if value := os.Getenv(name); value != "" {
			return value, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key for %s not found in environment or config", provider)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
