package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sawpanic/eventguard/internal/catalog"
	"github.com/sawpanic/eventguard/internal/domain"
	"github.com/sawpanic/eventguard/internal/policy"
	"github.com/sawpanic/eventguard/internal/score"
	"github.com/sawpanic/eventguard/internal/signals"
)

// Config is the full guard configuration document. A config error is fatal
// at startup: the guard must never run a cycle against an inconsistent
// policy.
type Config struct {
	Calendar CalendarConfig           `yaml:"calendar"`
	Feed     catalog.FeedClientConfig `yaml:"feed"`
	Cache    CacheConfig              `yaml:"cache"`
	Signals  signals.CollectorConfig  `yaml:"signals"`
	Scorer   score.ScorerConfig       `yaml:"scorer"`
	Policy   policy.TranslatorConfig  `yaml:"policy"`
	Pipeline PipelineConfig           `yaml:"pipeline"`
	Persist  PersistConfig            `yaml:"persist"`
}

// CalendarConfig locates the curated event table.
type CalendarConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// CacheConfig enables the optional Redis read-through feed cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Addr    string        `yaml:"addr"`
	TTL     time.Duration `yaml:"ttl"`
}

// PipelineConfig bounds the per-cycle worker pool.
type PipelineConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" validate:"gt=0"`
}

// PersistConfig enables the optional Postgres audit store.
type PersistConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Calendar: CalendarConfig{Path: "config/calendar.csv"},
		Feed:     catalog.DefaultFeedClientConfig(),
		Cache:    CacheConfig{TTL: 6 * time.Hour},
		Signals:  signals.DefaultCollectorConfig(),
		Scorer:   score.DefaultScorerConfig(),
		Policy:   policy.DefaultTranslatorConfig(),
		Pipeline: PipelineConfig{MaxConcurrency: 8},
		Persist:  PersistConfig{},
	}
}

// Load reads and validates a yaml config file. Missing sections inherit
// defaults so a minimal file stays usable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs field-level constraints plus the cross-field checks that
// tag validation cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	t := c.Scorer.TierThresholds
	if !(t.Light < t.Moderate && t.Moderate < t.Severe) {
		return fmt.Errorf("config validation: tier thresholds must be strictly increasing (light=%.2f moderate=%.2f severe=%.2f)",
			t.Light, t.Moderate, t.Severe)
	}

	h := c.Scorer.Haircuts
	if !(h.None <= h.Light && h.Light <= h.Moderate && h.Moderate <= h.Severe) {
		return fmt.Errorf("config validation: haircut fractions must be non-decreasing across tiers")
	}

	for _, et := range domain.ValidEventTypes {
		if c.Scorer.TypeWeights[et] <= 0 {
			return fmt.Errorf("config validation: type weight for %s must be positive", et)
		}
		if _, ok := c.Scorer.Horizons[et]; !ok {
			return fmt.Errorf("config validation: missing horizon for event type %s", et)
		}
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("config validation: cache.addr required when cache is enabled")
	}
	if c.Persist.Enabled && c.Persist.DSN == "" {
		return fmt.Errorf("config validation: persist.dsn required when persistence is enabled")
	}
	return nil
}
