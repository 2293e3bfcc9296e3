// Package config provides configuration loading and management for fibernav.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
	"gopkg.in/yaml.v3"
)

// Error codes raised by this package.
const (
	ErrCodeRead  = "CONFIG_READ"
	ErrCodeParse = "CONFIG_PARSE"
	ErrCodeWrite = "CONFIG_WRITE"
	ErrCodeWatch = "CONFIG_WATCH"
)

// Color is an RGBA color in YAML form.
type Color struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Worker pool parameters
	Threads struct {
		// Count is the number of pool workers. 0 picks a count from the CPUs.
		Count int `yaml:"count"`
	} `yaml:"threads"`

	// Selection engine parameters
	ROI struct {
		// BackgroundRecompute starts a recomputation whenever a region changes
		BackgroundRecompute bool `yaml:"backgroundRecompute"`

		// BundleColor is the initial color of new branches
		BundleColor Color `yaml:"bundleColor"`
	} `yaml:"roi"`

	// Synthetic dataset parameters
	Dataset struct {
		Fibers int    `yaml:"fibers"`
		Seed   uint64 `yaml:"seed"`
	} `yaml:"dataset"`

	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`

		// Format is text or json
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled   bool   `yaml:"enabled"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Threads.Count = 0

	cfg.ROI.BackgroundRecompute = true
	cfg.ROI.BundleColor = Color{R: 1, A: 1}

	cfg.Dataset.Fibers = 1000
	cfg.Dataset.Seed = 1

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = "fibernav"

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeRead, fmt.Sprintf("error reading config file %s", configPath))
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, ErrCodeParse, fmt.Sprintf("error parsing config file %s", configPath))
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, ErrCodeWrite, "error creating config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, ErrCodeWrite, "error marshaling config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, ErrCodeWrite, "error writing config file")
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
