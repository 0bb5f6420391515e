// Package config handles configuration for detox-expect.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xflotus/Detox/pkg/core"
	"github.com/0xflotus/Detox/pkg/logger"
	"github.com/0xflotus/Detox/pkg/predicate"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Matching
	CompoundTextNodeType string `yaml:"compoundTextNodeType"` // Enables the compound-text label rewrite

	// Retry settings
	RetryInterval    time.Duration `yaml:"retryInterval"`    // Delay between attempts (e.g. 100ms)
	DefaultTimeoutMs float64       `yaml:"defaultTimeoutMs"` // Applied to expectations without a timeout

	// Execution settings
	Env      map[string]string `yaml:"env"`      // Variables for ${...} expansion
	Platform string            `yaml:"platform"` // Page source format: ios, android or json

	Log       LogConfig       `yaml:"log"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
}

// LogConfig configures the log file and its rotation.
type LogConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// ArtifactsConfig configures what is attached to results.
type ArtifactsConfig struct {
	OnSuccess bool  `yaml:"onSuccess"`
	Hierarchy *bool `yaml:"hierarchy"` // nil = default (on)
	Target    *bool `yaml:"target"`    // nil = default (on)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{RetryInterval: 100 * time.Millisecond}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return defaults
	return Default(), nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	if c.RetryInterval < 0 {
		return fmt.Errorf("retryInterval must not be negative, got %s", c.RetryInterval)
	}
	if c.DefaultTimeoutMs < 0 {
		return fmt.Errorf("defaultTimeoutMs must not be negative, got %v", c.DefaultTimeoutMs)
	}
	switch c.Platform {
	case "", "ios", "android", "json":
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	return nil
}

// PredicateOptions returns the construction options for predicates.
func (c *Config) PredicateOptions() predicate.Options {
	return predicate.Options{
		CompoundTextNodesPresent: c.CompoundTextNodeType != "",
		CompoundTextNodeType:     c.CompoundTextNodeType,
	}
}

// DefaultTimeout returns DefaultTimeoutMs as a duration.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs * float64(time.Millisecond))
}

// ArtifactConfig returns the artifact capture settings.
func (c *Config) ArtifactConfig() core.ArtifactConfig {
	cfg := core.DefaultArtifactConfig()
	cfg.CaptureOnSuccess = c.Artifacts.OnSuccess
	if c.Artifacts.Hierarchy != nil {
		cfg.UIHierarchy = *c.Artifacts.Hierarchy
	}
	if c.Artifacts.Target != nil {
		cfg.Target = *c.Artifacts.Target
	}
	return cfg
}

// Rotation returns the logger rotation settings. A relative log path is
// resolved against the home directory.
func (c *Config) Rotation() (string, logger.Rotation) {
	path := c.Log.Path
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(GetLogsDir(), path)
	}
	return path, logger.Rotation{
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
