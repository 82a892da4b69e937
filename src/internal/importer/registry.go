package importer

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the registered providers.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(provider Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("import provider '%s' is already registered", name)
	}

	r.providers[name] = provider
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("import provider '%s' not found", name)
	}
	return provider, nil
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns every provider, sorted by name.
func (r *Registry) GetAll() []Provider {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]Provider, 0, len(names))
	for _, name := range names {
		providers = append(providers, r.providers[name])
	}
	return providers
}

// Register adds a provider to the global registry.
func Register(provider Provider) error {
	return globalRegistry.Register(provider)
}

// Get retrieves a provider from the global registry.
func Get(name string) (Provider, error) {
	return globalRegistry.Get(name)
}

// List returns the provider names in the global registry.
func List() []string {
	return globalRegistry.List()
}

// GetAll returns every provider in the global registry.
func GetAll() []Provider {
	return globalRegistry.GetAll()
}
