// Package config provides configuration loading and management for nstools.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Analysis parameters
	Analysis struct {
		// CenterX is the x coordinate of the pore axis
		CenterX float64 `yaml:"centerX"`

		// CenterY is the y coordinate of the pore axis
		CenterY float64 `yaml:"centerY"`

		// Radius is the disk radius used for cylindrical averaging
		Radius float64 `yaml:"radius"`

		// Decimals is the rounding precision applied when reading tables
		Decimals int `yaml:"decimals"`

		// SmoothDelta is the output spacing of the smoothing resampler
		SmoothDelta float64 `yaml:"smoothDelta"`
	} `yaml:"analysis"`

	// Output parameters
	Output struct {
		// Directory receives the generated tables; empty means the
		// working directory
		Directory string `yaml:"directory"`

		// Compression selects the table compression: none, gz or zst
		Compression string `yaml:"compression"`
	} `yaml:"output"`

	// Runtime parameters
	Runtime struct {
		// Cores specifies how many CPU cores to use for parallel averaging
		Cores int `yaml:"cores"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"runtime"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Analysis.CenterX = 0
	cfg.Analysis.CenterY = 0
	cfg.Analysis.Radius = 1.0
	cfg.Analysis.Decimals = 7
	cfg.Analysis.SmoothDelta = 0.25

	cfg.Output.Directory = ""
	cfg.Output.Compression = "none"

	cfg.Runtime.Cores = runtime.NumCPU() // Use all available cores by default
	cfg.Runtime.Verbose = false

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
