// Package config loads the YAML tool configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format names for persisted snapshots.
const (
	FormatJSON   = "json"
	FormatBinary = "binary"
)

type Config struct {
	Exclude    []string `yaml:"exclude"`
	OutputFile string   `yaml:"output_file"`
	Format     string   `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Exclude: []string{
			".git/",
			".svn/",
			"node_modules/",
			"vendor/",
			"__pycache__/",
			"*.o",
			"*.so",
			"*.exe",
			"bin/",
			"dist/",
			"*.tmp",
			"*.swp",
			"*.log",
			".DS_Store",
			"Thumbs.db",
		},
		Format: FormatJSON,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	if cfg.Format != FormatJSON && cfg.Format != FormatBinary {
		return nil, fmt.Errorf("unknown snapshot format %q", cfg.Format)
	}

	return &cfg, nil
}
