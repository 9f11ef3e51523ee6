// Package config loads the run policy from a YAML file with validated
// defaults. Every knob the pipeline consumes (size limit, safety margin,
// minimum chunk duration, parallelism, retry bounds) lives here; components
// receive values explicitly and never read process-wide state themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "SPLITSCRIBE_CONFIG"

// defaultConfigDir is the directory under the user config dir holding config.yaml.
const defaultConfigDir = "splitscribe"

// ErrInvalidConfig indicates the config file failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete run policy.
type Config struct {
	Limits        LimitsConfig        `yaml:"limits"`
	Split         SplitConfig         `yaml:"split"`
	Transcription TranscriptionConfig `yaml:"transcription"`
}

// LimitsConfig bounds what a single API upload may be.
type LimitsConfig struct {
	// MaxUploadBytes is the API's hard payload cap.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// SafetyMargin is the fraction of MaxUploadBytes actually targeted,
	// reserving headroom for re-encoding overhead. Must be in (0, 1].
	SafetyMargin float64 `yaml:"safety_margin"`
}

// EffectiveLimit returns the upload budget after applying the safety margin.
func (l LimitsConfig) EffectiveLimit() int64 {
	return int64(float64(l.MaxUploadBytes) * l.SafetyMargin)
}

// SplitConfig controls how the source recording is cut.
type SplitConfig struct {
	// MinChunkSeconds is the minimum viable chunk duration. A trailing
	// chunk shorter than this is merged into its predecessor instead of
	// being submitted on its own.
	MinChunkSeconds float64 `yaml:"min_chunk_seconds"`
}

// MinChunkDuration returns the minimum viable chunk duration.
func (s SplitConfig) MinChunkDuration() time.Duration {
	return time.Duration(s.MinChunkSeconds * float64(time.Second))
}

// TranscriptionConfig controls API dispatch behavior.
type TranscriptionConfig struct {
	// MaxParallel is the concurrency ceiling for chunk transcription.
	MaxParallel int `yaml:"max_parallel"`

	// MaxRetries bounds retries per chunk for transient failures.
	MaxRetries int `yaml:"max_retries"`

	// BaseBackoffSeconds is the initial retry delay; doubles per retry.
	BaseBackoffSeconds float64 `yaml:"base_backoff_seconds"`

	// MaxBackoffSeconds caps the exponential backoff delay.
	MaxBackoffSeconds float64 `yaml:"max_backoff_seconds"`
}

// BaseBackoff returns the initial retry delay.
func (t TranscriptionConfig) BaseBackoff() time.Duration {
	return time.Duration(t.BaseBackoffSeconds * float64(time.Second))
}

// MaxBackoff returns the backoff delay cap.
func (t TranscriptionConfig) MaxBackoff() time.Duration {
	return time.Duration(t.MaxBackoffSeconds * float64(time.Second))
}

// Default returns the policy used when no config file exists.
// The 25MB cap and 90% margin match the transcription API's documented limit.
func Default() Config {
	return Config{
		Limits: LimitsConfig{
			MaxUploadBytes: 25 * 1024 * 1024,
			SafetyMargin:   0.9,
		},
		Split: SplitConfig{
			MinChunkSeconds: 1.0,
		},
		Transcription: TranscriptionConfig{
			MaxParallel:        4,
			MaxRetries:         3,
			BaseBackoffSeconds: 1.0,
			MaxBackoffSeconds:  30.0,
		},
	}
}

// Load reads the policy from path. An empty path resolves the default
// location; a missing file at the default location yields Default() rather
// than an error, so fresh installs work without setup.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultPath()
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is user's own config file
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Start from defaults so a partial file only overrides what it names.
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}

	return cfg, nil
}

// defaultPath resolves the config file location:
// $SPLITSCRIBE_CONFIG, then <user-config-dir>/splitscribe/config.yaml.
func defaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, defaultConfigDir, "config.yaml")
}

// Validate checks every section of the policy.
func (c Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	if err := c.Split.Validate(); err != nil {
		return fmt.Errorf("split: %w", err)
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	return nil
}

// Validate checks upload limit bounds.
func (l LimitsConfig) Validate() error {
	if l.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive, got %d",
			ErrInvalidConfig, l.MaxUploadBytes)
	}
	if l.SafetyMargin <= 0 || l.SafetyMargin > 1 {
		return fmt.Errorf("%w: safety_margin must be in (0, 1], got %g",
			ErrInvalidConfig, l.SafetyMargin)
	}
	return nil
}

// Validate checks split policy bounds.
func (s SplitConfig) Validate() error {
	if s.MinChunkSeconds < 0 {
		return fmt.Errorf("%w: min_chunk_seconds must not be negative, got %g",
			ErrInvalidConfig, s.MinChunkSeconds)
	}
	return nil
}

// Validate checks dispatch policy bounds.
func (t TranscriptionConfig) Validate() error {
	if t.MaxParallel < 1 {
		return fmt.Errorf("%w: max_parallel must be at least 1, got %d",
			ErrInvalidConfig, t.MaxParallel)
	}
	if t.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative, got %d",
			ErrInvalidConfig, t.MaxRetries)
	}
	if t.BaseBackoffSeconds <= 0 {
		return fmt.Errorf("%w: base_backoff_seconds must be positive, got %g",
			ErrInvalidConfig, t.BaseBackoffSeconds)
	}
	if t.MaxBackoffSeconds < t.BaseBackoffSeconds {
		return fmt.Errorf("%w: max_backoff_seconds must be >= base_backoff_seconds",
			ErrInvalidConfig)
	}
	return nil
}
