package data

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// registryFile is the YAML layout of a registry overlay.
type registryFile struct {
	Attributes []AttributeDefinition `yaml:"attributes"`
	Triggers   []TriggerDefinition   `yaml:"triggers"`
	Statuses   []StatusDefinition    `yaml:"statuses"`
	Variables  []VariableDefinition  `yaml:"variables"`
}

// LoadRegistry builds a registry from the built-in tables overlaid with the
// YAML file at path. Entries in the file replace built-ins with the same ID.
// An empty path or a missing file yields the built-in registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRegistry(), nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}

	return ParseRegistry(raw)
}

// ParseRegistry builds a registry from built-ins overlaid with YAML content.
func ParseRegistry(raw []byte) (*Registry, error) {
	var overlay registryFile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}

	r, err := NewRegistry(
		append(append([]AttributeDefinition{}, attributeDefs...), overlay.Attributes...),
		append(append([]TriggerDefinition{}, triggerDefs...), overlay.Triggers...),
		append(append([]StatusDefinition{}, statusDefs...), overlay.Statuses...),
		append(append([]VariableDefinition{}, variableDefs...), overlay.Variables...),
	)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	slog.Info("loaded registry overlay",
		"attributes", len(overlay.Attributes),
		"triggers", len(overlay.Triggers),
		"statuses", len(overlay.Statuses),
		"variables", len(overlay.Variables))
	return r, nil
}
