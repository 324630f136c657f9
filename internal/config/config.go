// Package config holds the pipeline configuration, layered from
// defaults, the config file, FORESIGHT_* environment variables and
// provider API keys from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/mhuss/foresight/internal/model"
)

// Config is the full configuration surface of the pipeline.
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Models    ModelsConfig    `yaml:"models" mapstructure:"models"`
	Seeds     SeedsConfig     `yaml:"seeds" mapstructure:"seeds"`
	Chain     ChainConfig     `yaml:"chain" mapstructure:"chain"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Rate      RateConfig      `yaml:"rate" mapstructure:"rate"`
	Chronicle ChronicleConfig `yaml:"chronicle" mapstructure:"chronicle"`
	Labels    LabelsConfig    `yaml:"labels" mapstructure:"labels"`
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Domains   []string        `yaml:"domains" mapstructure:"domains"`
}

// APIConfig carries provider credentials.
type APIConfig struct {
	OpenRouterKey string `yaml:"openrouter_key" mapstructure:"openrouter_key"`
	ExaKey        string `yaml:"exa_key" mapstructure:"exa_key"`
}

// ModelsConfig names the two completion modes: a creative research
// model and a factual reasoning model.
type ModelsConfig struct {
	Research  string `yaml:"research" mapstructure:"research"`
	Reasoning string `yaml:"reasoning" mapstructure:"reasoning"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Cutoff    string `yaml:"cutoff" mapstructure:"cutoff"` // forecasting model knowledge cutoff
}

// SeedsConfig sets the per-regime seed targets and date windows.
type SeedsConfig struct {
	PostCutoffCount int    `yaml:"post_cutoff_count" mapstructure:"post_cutoff_count"`
	PostCutoffStart string `yaml:"post_cutoff_start" mapstructure:"post_cutoff_start"`
	PostCutoffEnd   string `yaml:"post_cutoff_end" mapstructure:"post_cutoff_end"`
	InDistCount     int    `yaml:"in_dist_count" mapstructure:"in_dist_count"`
	InDistStartYear int    `yaml:"in_dist_start_year" mapstructure:"in_dist_start_year"`
	InDistEndYear   int    `yaml:"in_dist_end_year" mapstructure:"in_dist_end_year"`
}

// ChainConfig shapes the outcome chains.
type ChainConfig struct {
	MaxDepth             int `yaml:"max_depth" mapstructure:"max_depth"`
	AlternativesPerLevel int `yaml:"alternatives_per_level" mapstructure:"alternatives_per_level"`
}

// RetryConfig bounds retries on outbound calls.
type RetryConfig struct {
	Attempts int           `yaml:"attempts" mapstructure:"attempts"`
	Delay    time.Duration `yaml:"delay" mapstructure:"delay"`
}

// RateConfig caps outbound search traffic.
type RateConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ChronicleConfig tunes the parallel chronicler.
type ChronicleConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LabelsConfig holds the soft-labeling scheme for downstream training.
// The positive weight is a policy choice, not a pipeline invariant.
type LabelsConfig struct {
	PositiveWeight float64 `yaml:"positive_weight" mapstructure:"positive_weight"`
}

// PathsConfig locates the corpus output and the checkpoint directory.
type PathsConfig struct {
	Output      string `yaml:"output" mapstructure:"output"`
	Checkpoints string `yaml:"checkpoints" mapstructure:"checkpoints"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			Research:  "deepseek/deepseek-chat",
			Reasoning: "deepseek/deepseek-reasoner",
			BaseURL:   "https://openrouter.ai/api/v1",
			Cutoff:    "2024-06-30",
		},
		Seeds: SeedsConfig{
			PostCutoffCount: 70,
			PostCutoffStart: "2024-07-01",
			PostCutoffEnd:   "2025-06-30",
			InDistCount:     30,
			InDistStartYear: 2019,
			InDistEndYear:   2022,
		},
		Chain: ChainConfig{
			MaxDepth:             3,
			AlternativesPerLevel: 3,
		},
		Retry: RetryConfig{
			Attempts: 3,
			Delay:    2 * time.Second,
		},
		Rate: RateConfig{
			RequestsPerMinute: 60,
		},
		Chronicle: ChronicleConfig{
			Concurrency: 10,
		},
		Labels: LabelsConfig{
			PositiveWeight: 0.7,
		},
		Paths: PathsConfig{
			Output:      "data/real_historical_cases.jsonl",
			Checkpoints: "checkpoints",
		},
		Domains: append([]string(nil), model.Domains...),
	}
}

// Load merges viper state over the defaults and validates credentials.
// A missing OpenRouter key is fatal; a missing Exa key only degrades
// search to empty results, warned about here once at startup.
func Load() (*Config, error) {
	cfg := Default()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Provider keys come from the environment unless set in the file.
	if cfg.API.OpenRouterKey == "" {
		cfg.API.OpenRouterKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if cfg.API.ExaKey == "" {
		cfg.API.ExaKey = os.Getenv("EXA_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.API.ExaKey == "" {
		fmt.Println("Warning: EXA_API_KEY not set - web search will be limited")
	}
	return cfg, nil
}

// Validate checks the settings a run cannot proceed without.
func (c *Config) Validate() error {
	if c.API.OpenRouterKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is not set")
	}
	if c.Chain.MaxDepth < 1 {
		return fmt.Errorf("chain.max_depth must be at least 1, got %d", c.Chain.MaxDepth)
	}
	if c.Chain.AlternativesPerLevel < 0 {
		return fmt.Errorf("chain.alternatives_per_level must not be negative")
	}
	if c.Labels.PositiveWeight <= 0 || c.Labels.PositiveWeight >= 1 {
		return fmt.Errorf("labels.positive_weight must be in (0, 1), got %g", c.Labels.PositiveWeight)
	}
	if c.Paths.Output == "" {
		return fmt.Errorf("paths.output is not set")
	}
	if c.Paths.Checkpoints == "" {
		return fmt.Errorf("paths.checkpoints is not set")
	}
	return nil
}
