package frontend

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry maps case-insensitive language keys to frontend factories.
// Entries are write-once.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default is the process-wide registry frontends register into.
var Default = NewRegistry()

func normalizeKey(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// Register stores factory under language. Registering an existing key, an
// empty key or a nil factory is a configuration error.
func (r *Registry) Register(language string, factory Factory) error {
	key := normalizeKey(language)
	if key == "" {
		return NewConfigError(language, "language key must not be empty")
	}
	if factory == nil {
		return NewConfigError(key, "factory must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[key]; exists {
		return NewConfigError(key, fmt.Sprintf("parser already registered for language %q", key))
	}
	r.factories[key] = factory
	return nil
}

// MustRegister is like Register but panics on error. Frontends call it
// from init.
func (r *Registry) MustRegister(language string, factory Factory) {
	if err := r.Register(language, factory); err != nil {
		panic(err)
	}
}

// Resolve instantiates the frontend registered under language.
func (r *Registry) Resolve(language string) (Frontend, error) {
	key := normalizeKey(language)

	r.mu.RLock()
	factory, ok := r.factories[key]
	r.mu.RUnlock()

	if !ok {
		return nil, NewLookupError(language, r.Languages())
	}
	f, err := factory()
	if err != nil {
		return nil, fmt.Errorf("construct %s frontend: %w", key, err)
	}
	return f, nil
}

// Languages returns the registered keys in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Register stores factory in the Default registry.
func Register(language string, factory Factory) error {
	return Default.Register(language, factory)
}

// MustRegister stores factory in the Default registry or panics.
func MustRegister(language string, factory Factory) {
	Default.MustRegister(language, factory)
}

// Resolve instantiates a frontend from the Default registry.
func Resolve(language string) (Frontend, error) {
	return Default.Resolve(language)
}

// Languages lists the Default registry's keys in sorted order.
func Languages() []string {
	return Default.Languages()
}
