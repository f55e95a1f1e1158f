// Package config provides configuration management for the PAA harvester.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoKeywords          = errors.New("at least one keyword is required")
	ErrEmptyKeyword        = errors.New("keywords must not be blank")
	ErrInvalidMaxDepth     = errors.New("max_depth must be at least 1")
	ErrInvalidScrollSteps  = errors.New("scroll.max_steps must be at least 1")
	ErrInvalidScrollStep   = errors.New("scroll.step_px must be positive")
	ErrInvalidPacingBounds = errors.New("pacing.min_ms must be positive and not exceed pacing.max_ms")
	ErrInvalidPlacement    = errors.New("variants placement must be 'prefix' or 'suffix'")
	ErrEmptyVariantText    = errors.New("variants text must not be empty")
	ErrMissingSelector     = errors.New("selector must not be empty")
	ErrNoIndicators        = errors.New("verification.indicators must not be empty")
	ErrInvalidInitAttempts = errors.New("browser.init_attempts must be at least 1")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Variant placement values.
const (
	PlacementPrefix = "prefix"
	PlacementSuffix = "suffix"
)

// Config represents the complete harvester configuration.
type Config struct {
	Keywords     []string           `yaml:"keywords"`
	MaxDepth     int                `yaml:"max_depth"`
	Headless     bool               `yaml:"headless"`
	ResultsDir   string             `yaml:"results_dir"`
	Search       SearchConfig       `yaml:"search"`
	Browser      BrowserConfig      `yaml:"browser"`
	Selectors    SelectorConfig     `yaml:"selectors"`
	Variants     []VariantRule      `yaml:"variants"`
	Verification VerificationConfig `yaml:"verification"`
	Scroll       ScrollConfig       `yaml:"scroll"`
	Pacing       PacingConfig       `yaml:"pacing"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// SearchConfig defines how a search term is submitted.
type SearchConfig struct {
	BaseURL string `yaml:"base_url"`
}

// BrowserConfig contains automation-engine settings.
type BrowserConfig struct {
	UserAgent         string `yaml:"user_agent"`
	CallTimeoutSec    int    `yaml:"call_timeout_sec"`
	InitAttempts      int    `yaml:"init_attempts"`
	InitRetryDelaySec int    `yaml:"init_retry_delay_sec"`
}

// SelectorConfig names the structural patterns of the target panels.
type SelectorConfig struct {
	Panel           string `yaml:"panel"`
	Question        string `yaml:"question"`
	ExpandedAttr    string `yaml:"expanded_attr"`
	Snippet         string `yaml:"snippet"`
	RelatedPrimary  string `yaml:"related_primary"`
	RelatedFallback string `yaml:"related_fallback"`
	MinSnippetChars int    `yaml:"min_snippet_chars"`
}

// VariantRule is one keyword rewrite: Text is attached to the keyword at the
// given placement. Rule order is significant; earlier rules are tried first.
type VariantRule struct {
	Placement string `yaml:"placement"`
	Text      string `yaml:"text"`
}

// VerificationConfig lists block/verification page indicators.
type VerificationConfig struct {
	Indicators []string `yaml:"indicators"`
}

// ScrollConfig bounds the lazy-render probe.
type ScrollConfig struct {
	MaxSteps int `yaml:"max_steps"`
	StepPx   int `yaml:"step_px"`
	PauseMs  int `yaml:"pause_ms"`
}

// PacingConfig bounds the randomized pauses between interactions.
type PacingConfig struct {
	MinMs int `yaml:"min_ms"`
	MaxMs int `yaml:"max_ms"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration shape written when no config file
// exists. The selector and indicator defaults match the known structure of
// the target panel.
func DefaultConfig() *Config {
	return &Config{
		Keywords:   []string{"golang web scraping"},
		MaxDepth:   3,
		Headless:   false,
		ResultsDir: "results",
		Search: SearchConfig{
			BaseURL: "https://www.google.com/search",
		},
		Browser: BrowserConfig{
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			CallTimeoutSec:    30,
			InitAttempts:      3,
			InitRetryDelaySec: 5,
		},
		Selectors: SelectorConfig{
			Panel:           "div.related-question-pair",
			Question:        "div[role='button']",
			ExpandedAttr:    "aria-expanded",
			Snippet:         ".wDYxhc",
			RelatedPrimary:  "div.s75CSd, div.k8XOCe, a.k8XOCe",
			RelatedFallback: "div.AJLUJb",
			MinSnippetChars: 20,
		},
		Variants: []VariantRule{
			{Placement: PlacementPrefix, Text: "What is "},
			{Placement: PlacementPrefix, Text: "Best "},
			{Placement: PlacementPrefix, Text: "How to use "},
			{Placement: PlacementPrefix, Text: "How to choose "},
			{Placement: PlacementSuffix, Text: " guide"},
		},
		Verification: VerificationConfig{
			Indicators: []string{
				"captcha",
				"recaptcha",
				"unusual traffic",
				"automated queries",
				"sorry/index",
				"ipv4.google.com/sorry",
			},
		},
		Scroll: ScrollConfig{
			MaxSteps: 5,
			StepPx:   500,
			PauseMs:  1500,
		},
		Pacing: PacingConfig{
			MinMs: 2000,
			MaxMs: 5000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file. Fields absent from the
// file keep their defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Keywords) == 0 {
		return ErrNoKeywords
	}

	for i, kw := range c.Keywords {
		if kw == "" {
			return fmt.Errorf("%w: keywords[%d]", ErrEmptyKeyword, i)
		}
	}

	if c.MaxDepth < 1 {
		return ErrInvalidMaxDepth
	}

	if c.Scroll.MaxSteps < 1 {
		return ErrInvalidScrollSteps
	}

	if c.Scroll.StepPx < 1 {
		return ErrInvalidScrollStep
	}

	if c.Pacing.MinMs < 1 || c.Pacing.MinMs > c.Pacing.MaxMs {
		return ErrInvalidPacingBounds
	}

	for i, v := range c.Variants {
		if v.Placement != PlacementPrefix && v.Placement != PlacementSuffix {
			return fmt.Errorf("%w: variants[%d]", ErrInvalidPlacement, i)
		}

		if v.Text == "" {
			return fmt.Errorf("%w: variants[%d]", ErrEmptyVariantText, i)
		}
	}

	selectors := map[string]string{
		"panel":            c.Selectors.Panel,
		"question":         c.Selectors.Question,
		"expanded_attr":    c.Selectors.ExpandedAttr,
		"snippet":          c.Selectors.Snippet,
		"related_primary":  c.Selectors.RelatedPrimary,
		"related_fallback": c.Selectors.RelatedFallback,
	}

	for name, sel := range selectors {
		if sel == "" {
			return fmt.Errorf("%w: selectors.%s", ErrMissingSelector, name)
		}
	}

	if len(c.Verification.Indicators) == 0 {
		return ErrNoIndicators
	}

	if c.Browser.InitAttempts < 1 {
		return ErrInvalidInitAttempts
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetCallTimeout returns the per-call automation timeout.
func (b *BrowserConfig) GetCallTimeout() time.Duration {
	return time.Duration(b.CallTimeoutSec) * time.Second
}

// GetInitRetryDelay returns the pause between engine init attempts.
func (b *BrowserConfig) GetInitRetryDelay() time.Duration {
	return time.Duration(b.InitRetryDelaySec) * time.Second
}

// GetPause returns the fixed pause after each probe scroll step.
func (s *ScrollConfig) GetPause() time.Duration {
	return time.Duration(s.PauseMs) * time.Millisecond
}

// Bounds returns the randomized pacing interval.
func (p *PacingConfig) Bounds() (time.Duration, time.Duration) {
	return time.Duration(p.MinMs) * time.Millisecond, time.Duration(p.MaxMs) * time.Millisecond
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Keywords: %d, MaxDepth: %d, Headless: %v, ResultsDir: %s}",
		len(c.Keywords),
		c.MaxDepth,
		c.Headless,
		c.ResultsDir,
	)
}
