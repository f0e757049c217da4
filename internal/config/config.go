package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the CLI-side project file (loreweave.yaml). It names
// the extraction result files to ingest and where the built graph
// snapshot goes.
type ProjectConfig struct {
	Project string   `yaml:"project"`
	Version int      `yaml:"version"`
	Inputs  []string `yaml:"inputs"`
	Output  string   `yaml:"output"`

	// SentenceLevel switches co-occurrence derivation from note windows
	// to sentence windows.
	SentenceLevel bool `yaml:"sentence_level"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Inputs) == 0 {
		return fmt.Errorf("at least one input file is required")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		cfg.Output = "graph.json"
	}
	return nil
}
