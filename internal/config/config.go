// Package config holds truthwatch's YAML-backed configuration: scan-root
// filtering, browser setup, per-phase budgets, and the frozen confidence
// weight table version. Adapted from the project's config.Load/Save idiom.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all truthwatch configuration.
type Config struct {
	// ContractVersion freezes the confidence weight table version used by
	// internal/correlate: one canonical weight set per version, frozen
	// once released.
	ContractVersion string `yaml:"contract_version"`

	Scan    ScanConfig    `yaml:"scan"`
	Browser BrowserConfig `yaml:"browser"`
	Budgets BudgetConfig  `yaml:"budgets"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the side-channel logger (internal/logging).
type LoggingConfig struct {
	Dir        string `yaml:"dir"`
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ContractVersion: "truthwatch-weights-v1",
		Scan:            DefaultScanConfig(),
		Browser:         DefaultBrowserConfig(),
		Budgets:         DefaultBudgetConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults plus
// environment overrides when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides layers environment variables on top of file/defaults.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TRUTHWATCH_LOG_DIR"); v != "" {
		c.Logging.Dir = v
	}
	if v := os.Getenv("TRUTHWATCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TRUTHWATCH_HEADLESS"); v == "false" {
		c.Browser.Headless = false
	}
}
