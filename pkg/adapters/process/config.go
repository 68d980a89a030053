package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes an option source backed by an external command.
type SourceConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
	// Timeout is a Go duration string; DefaultTimeout applies when empty.
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ConfigFile represents the structure of sources.yaml
type ConfigFile struct {
	Sources []SourceConfig `yaml:"sources" json:"sources"`
}

// LoadSources reads a configuration file (YAML or JSON) and returns the sources by name.
// A missing file means no sources are configured.
func LoadSources(path string) (map[string]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]SourceConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read sources config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	sources := make(map[string]SourceConfig)
	for _, src := range cfg.Sources {
		if src.Name == "" {
			continue
		}
		if src.Command == "" {
			return nil, fmt.Errorf("source %q has no command", src.Name)
		}
		sources[src.Name] = src
	}
	return sources, nil
}
