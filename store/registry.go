package store

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a store adapter from configuration.
type Factory func(cfg map[string]any) (Adapter, error)

// Registry manages named store-adapter factories and cached instances.
// The persistence framework selects adapters by their type identifier;
// registering a factory here is the plugin slot that replaces subclassing
// an abstract store base.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Adapter
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Adapter),
	}
}

// RegisterFactory registers a named factory for creating adapters.
func (r *Registry) RegisterFactory(storeType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[storeType] = factory
}

// Create instantiates an adapter using the named factory and config.
func (r *Registry) Create(storeType string, cfg map[string]any) (Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[storeType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store type %q not registered", storeType)
	}
	return factory(cfg)
}

// Get returns a cached adapter instance by store type.
func (r *Registry) Get(storeType string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[storeType]
	return inst, ok
}

// Set caches an adapter instance by store type.
func (r *Registry) Set(storeType string, instance Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[storeType] = instance
}

// List returns sorted type identifiers of all registered factories.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
