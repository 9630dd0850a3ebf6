package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceConfig is one RSS source entry from the sources YAML file.
type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Active   *bool  `yaml:"active"` // nil means active
}

// IsActive treats a missing active flag as enabled.
func (s SourceConfig) IsActive() bool {
	return s.Active == nil || *s.Active
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads and validates the RSS source seed file.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for i, source := range file.Sources {
		if source.Name == "" {
			return nil, fmt.Errorf("source %d: name is required", i)
		}
		if source.URL == "" {
			return nil, fmt.Errorf("source %q: url is required", source.Name)
		}
	}

	return file.Sources, nil
}
