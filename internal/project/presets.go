package project

import (
	"fmt"
	"sort"
	"sync"
)

// Preset is a named starting point for `sargen new`
type Preset struct {
	Name        string
	Description string
	Middleware  []string
	Docker      bool
}

// Registry manages the available presets
type Registry struct {
	presets map[string]*Preset
	mutex   sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		presets: make(map[string]*Preset),
	}
}

// Register adds a preset
func (r *Registry) Register(p *Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.presets[p.Name]; exists {
		return fmt.Errorf("preset %s already registered", p.Name)
	}

	r.presets[p.Name] = p
	return nil
}

// Get retrieves a preset by name
func (r *Registry) Get(name string) (*Preset, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, exists := r.presets[name]
	if !exists {
		return nil, fmt.Errorf("preset %s not found", name)
	}
	return p, nil
}

// List returns all presets sorted by name
func (r *Registry) List() []*Preset {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	presets := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}

// Names returns the preset names sorted
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, p := range list {
		names[i] = p.Name
	}
	return names
}

// Exists checks if a preset exists
func (r *Registry) Exists(name string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, exists := r.presets[name]
	return exists
}

// Apply merges the named preset into opts. Preset middleware comes first,
// followed by any extra middleware from opts, without duplicates.
func (r *Registry) Apply(opts Options) (Options, error) {
	p, err := r.Get(opts.Template)
	if err != nil {
		return opts, err
	}

	seen := make(map[string]bool)
	var merged []string
	for _, name := range append(append([]string(nil), p.Middleware...), opts.Middleware...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		merged = append(merged, name)
	}

	opts.Middleware = merged
	opts.Docker = opts.Docker || p.Docker
	return opts, nil
}

// BuiltinPresets returns a registry holding basic, api and full
func BuiltinPresets() *Registry {
	r := NewRegistry()
	for _, p := range []*Preset{
		{
			Name:        "basic",
			Description: "Minimal Express + Sequelize API with an error handler",
			Middleware:  []string{"errorHandler"},
		},
		{
			Name:        "api",
			Description: "REST API with JWT auth, CORS, request logging and validation",
			Middleware:  []string{"logger", "cors", "auth", "validate", "errorHandler"},
		},
		{
			Name:        "full",
			Description: "The api preset plus rate limiting and a Docker setup",
			Middleware:  []string{"logger", "cors", "rateLimit", "auth", "validate", "errorHandler"},
			Docker:      true,
		},
	} {
		// names are unique and non-empty
		_ = r.Register(p)
	}
	return r
}
