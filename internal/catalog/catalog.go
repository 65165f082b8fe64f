// Package catalog holds the closed set of canonical raw materials that
// decompositions terminate in, plus the decomposition policy limits.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed materials.yaml
var materialsYAML []byte

type Material struct {
	Key      string   `yaml:"key" json:"key"`
	Name     string   `yaml:"name" json:"name"`
	NameZH   string   `yaml:"name_zh" json:"name_zh"`
	Icon     string   `yaml:"icon" json:"icon"`
	Category string   `yaml:"category" json:"category"`
	Aliases  []string `yaml:"aliases" json:"aliases,omitempty"`
}

// Label renders "Name (名称)".
func (m Material) Label() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.NameZH)
}

type Policy struct {
	MaxDepth int      `yaml:"max_depth"`
	MinParts int      `yaml:"min_parts"`
	MaxParts int      `yaml:"max_parts"`
	Excluded []string `yaml:"excluded"`
}

type Catalog struct {
	Policy    Policy     `yaml:"policy"`
	Materials []Material `yaml:"materials"`

	index map[string]int
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(materialsYAML)
}

// Parse builds a catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse material catalog: %w", err)
	}
	if len(c.Materials) == 0 {
		return nil, fmt.Errorf("material catalog is empty")
	}
	if c.Policy.MinParts <= 0 || c.Policy.MaxParts < c.Policy.MinParts {
		return nil, fmt.Errorf("invalid part limits %d-%d", c.Policy.MinParts, c.Policy.MaxParts)
	}

	c.index = make(map[string]int)
	for i, m := range c.Materials {
		for _, name := range append([]string{m.Key, m.Name, m.NameZH}, m.Aliases...) {
			key := normalize(name)
			if key == "" {
				continue
			}
			if prev, dup := c.index[key]; dup && prev != i {
				return nil, fmt.Errorf("material name %q is ambiguous", name)
			}
			c.index[key] = i
		}
	}
	return &c, nil
}

// MustLoad is Load for package-level defaults and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup matches a part name against canonical names and aliases in
// either language, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(name string) (Material, bool) {
	i, ok := c.index[normalize(name)]
	if !ok {
		return Material{}, false
	}
	return c.Materials[i], true
}

// Labels returns "Name (名称)" for every material, in catalog order.
func (c *Catalog) Labels() []string {
	labels := make([]string, len(c.Materials))
	for i, m := range c.Materials {
		labels[i] = m.Label()
	}
	return labels
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
