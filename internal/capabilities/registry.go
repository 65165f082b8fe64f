package capabilities

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry answers what each configured model can do.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*ProviderCapabilities
}

// NewRegistry loads the capability files compiled into the binary.
func NewRegistry() (*Registry, error) {
	sub, err := fs.Sub(configFiles, "config")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadFS reads every *.yaml file at the root of fsys. The file name must
// match the provider it declares.
func LoadFS(fsys fs.FS) (*Registry, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no capability files found")
	}

	r := &Registry{providers: make(map[string]*ProviderCapabilities, len(names))}
	for _, name := range names {
		caps, err := parseProviderFile(fsys, name)
		if err != nil {
			return nil, err
		}
		r.providers[caps.Provider] = caps
	}
	return r, nil
}

func parseProviderFile(fsys fs.FS, name string) (*ProviderCapabilities, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	want := strings.TrimSuffix(path.Base(name), ".yaml")
	if caps.Provider != want {
		return nil, fmt.Errorf("%s declares provider %q, want %q", name, caps.Provider, want)
	}
	if len(caps.Models) == 0 && caps.Defaults == nil {
		return nil, fmt.Errorf("%s lists no models and no defaults", name)
	}
	return &caps, nil
}

// GetModelCapabilities returns capabilities for a specific model. Unlisted
// models resolve to the provider defaults when the provider declares them.
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	if i := slices.IndexFunc(p.Models, func(m ModelCapabilities) bool { return m.ID == model }); i >= 0 {
		caps := p.Models[i]
		return &caps, nil
	}
	if p.Defaults != nil {
		caps := *p.Defaults
		caps.ID = model
		return &caps, nil
	}
	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// ListProviderModels returns a provider's listed models in file order.
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return slices.Clone(p.Models), nil
}

// GetAllProviders returns the registered provider names, sorted.
func (r *Registry) GetAllProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.providers))
}
