package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities represents all metadata for a specific model
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// SupportsVision gates identification requests.
	SupportsVision bool `yaml:"supports_vision" json:"supports_vision"`
	// SupportsJSONMode lets the backend request a JSON response format.
	SupportsJSONMode bool `yaml:"supports_json_mode" json:"supports_json_mode"`

	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider string `yaml:"provider" json:"provider"`
	// Defaults applies to models not listed in the file. Providers without
	// defaults reject unknown models.
	Defaults *ModelCapabilities `yaml:"defaults" json:"defaults,omitempty"`
	Models   []ModelCapabilities `yaml:"-" json:"models"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML preserves model order from the YAML file
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	type header struct {
		Provider string                       `yaml:"provider"`
		Defaults *ModelCapabilities           `yaml:"defaults"`
		Models   map[string]ModelCapabilities `yaml:"models"`
	}
	var h header
	if err := node.Decode(&h); err != nil {
		return err
	}
	p.Provider = h.Provider
	p.Defaults = h.Defaults

	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		// key, value, key, value...
		for j := 0; j < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := h.Models[modelID]; ok {
				model.ID = modelID
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}
