// Package config provides configuration loading and management for aslquant.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// External tool commands
	Tools struct {
		// Converter is the DICOM-to-NIfTI conversion command
		Converter string `yaml:"converter"`

		// Validator is the dataset compliance validator command
		Validator string `yaml:"validator"`

		// Quantifier is the perfusion quantification engine command
		Quantifier string `yaml:"quantifier"`

		// EngineTimeoutMinutes bounds one quantification call; 0 disables
		// the timeout
		EngineTimeoutMinutes int `yaml:"engineTimeoutMinutes"`
	} `yaml:"tools"`

	// Output parameters
	Output struct {
		// Dir is where per-run engine output and the summary tables are written
		Dir string `yaml:"dir"`

		// Participants is the path to a participants attribute table to
		// merge into the summary; empty looks for participants.tsv at the
		// dataset root
		Participants string `yaml:"participants"`

		// RenderTable controls whether the summary is printed as a console
		// table at the end of the batch
		RenderTable bool `yaml:"renderTable"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// Format is "console" or "json"
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// EngineTimeout returns the engine timeout as a duration.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Tools.EngineTimeoutMinutes) * time.Minute
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default tool commands
	cfg.Tools.Converter = "dcm2niix"
	cfg.Tools.Validator = "bids-validator"
	cfg.Tools.Quantifier = "oxford_asl"
	cfg.Tools.EngineTimeoutMinutes = 30

	// Set default output parameters
	cfg.Output.Dir = "aslquant_output"
	cfg.Output.RenderTable = true

	// Set default logging parameters
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
