// Package config loads and saves the project configuration stored in
// .arch/config.yaml. A missing file is not an error: every setting has a
// default, and keys absent from the file keep their default value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the .arch directory.
const FileName = "config.yaml"

// Strategy names for health scoring.
const (
	StrategyBasic    = "basic"
	StrategyEnhanced = "enhanced"
)

// Config is the root of config.yaml.
type Config struct {
	Project string       `yaml:"project"`
	Cache   CacheConfig  `yaml:"cache"`
	Health  HealthConfig `yaml:"health"`
	Log     LogConfig    `yaml:"log"`
}

// CacheConfig controls the in-memory list cache of the store.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// HealthConfig holds the scoring knobs shared by both health strategies.
type HealthConfig struct {
	Strategy                 string                     `yaml:"strategy"`
	StalenessThresholdDays   int                        `yaml:"staleness_threshold_days"`
	StalenessPenaltyPerMonth int                        `yaml:"staleness_penalty_per_month"`
	NoLinksPenalty           int                        `yaml:"no_links_penalty"`
	StaleReferencePenalty    int                        `yaml:"stale_reference_penalty"`
	ScoreThreshold           int                        `yaml:"score_threshold"`
	DraftMaxDays             int                        `yaml:"draft_max_days"`
	RequiredSections         map[artifact.Type][]string `yaml:"required_sections"`
	MissingSectionPenalty    int                        `yaml:"missing_section_penalty"`
}

// LogConfig selects the slog level and handler format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when config.yaml is absent.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        30 * time.Second,
			MaxEntries: 100,
		},
		Health: DefaultHealth(),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultHealth returns the default scoring knobs.
func DefaultHealth() HealthConfig {
	return HealthConfig{
		Strategy:                 StrategyEnhanced,
		StalenessThresholdDays:   90,
		StalenessPenaltyPerMonth: 5,
		NoLinksPenalty:           10,
		StaleReferencePenalty:    15,
		ScoreThreshold:           80,
		DraftMaxDays:             30,
		RequiredSections:         map[artifact.Type][]string{},
		MissingSectionPenalty:    5,
	}
}

// Path returns the config file path inside the .arch directory.
func Path(baseDir string) string {
	return filepath.Join(baseDir, FileName)
}

// Load reads config.yaml from the .arch directory, layering it over the
// defaults.
func Load(baseDir string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(baseDir))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading %s: %w", FileName, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Save writes the configuration to config.yaml, creating the directory.
func Save(baseDir string, cfg Config) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", baseDir, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(Path(baseDir), data, 0o644)
}

// Validate rejects settings that would make scoring or caching meaningless.
func (c Config) Validate() error {
	switch c.Health.Strategy {
	case StrategyBasic, StrategyEnhanced:
	default:
		return fmt.Errorf("invalid health strategy %q: must be one of: basic, enhanced", c.Health.Strategy)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache max_entries must not be negative, got %d", c.Cache.MaxEntries)
	}
	if c.Health.StalenessThresholdDays < 0 {
		return fmt.Errorf("staleness_threshold_days must not be negative, got %d", c.Health.StalenessThresholdDays)
	}
	if c.Health.ScoreThreshold < 0 || c.Health.ScoreThreshold > 100 {
		return fmt.Errorf("score_threshold must be within 0-100, got %d", c.Health.ScoreThreshold)
	}
	for t := range c.Health.RequiredSections {
		if err := artifact.ValidateType(t); err != nil {
			return fmt.Errorf("required_sections: %w", err)
		}
	}
	return nil
}
