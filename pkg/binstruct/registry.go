package binstruct

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a process-wide table of named schemas. Protocol packages
// register at init; the first lookup freezes it.
type Registry struct {
	mu      sync.RWMutex
	frozen  bool
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// DefaultRegistry holds the schemas of the protocol packages.
var DefaultRegistry = NewRegistry()

// Register adds schemas. Registering after Freeze, or twice under one name,
// fails with ErrInvalidConfig.
func (r *Registry) Register(schemas ...*Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: registry is frozen", ErrInvalidConfig)
	}
	for _, s := range schemas {
		if _, dup := r.schemas[s.name]; dup {
			return fmt.Errorf("%w: schema %q already registered", ErrInvalidConfig, s.name)
		}
		r.schemas[s.name] = s
	}
	return nil
}

// MustRegister is like Register but panics.
func (r *Registry) MustRegister(schemas ...*Schema) {
	if err := r.Register(schemas...); err != nil {
		panic(err)
	}
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether the registry is frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the named schema and freezes the registry.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds schemas to DefaultRegistry and panics on failure.
func Register(schemas ...*Schema) { DefaultRegistry.MustRegister(schemas...) }

// Lookup finds a schema in DefaultRegistry.
func Lookup(name string) (*Schema, bool) { return DefaultRegistry.Lookup(name) }
