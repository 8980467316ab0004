// Package registry owns the scenarios of a run and loads them
// from declarative YAML or JSON files.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"digital.vasic.apisuite/pkg/scenario"
)

// Registry defines the interface for managing scenarios.
type Registry interface {
	// Register adds a scenario. IDs must be unique.
	Register(s scenario.Scenario) error

	// Get retrieves a scenario by ID.
	Get(id scenario.ID) (scenario.Scenario, error)

	// List returns all scenarios in registration order.
	List() []scenario.Scenario

	// ListByCategory returns the scenarios of one category in
	// registration order.
	ListByCategory(category string) []scenario.Scenario

	// Categories returns the distinct categories, sorted.
	Categories() []string

	// Clear removes all scenarios.
	Clear()

	// Count returns the number of registered scenarios.
	Count() int
}

// DefaultRegistry is the standard Registry implementation.
// It is safe for concurrent use.
type DefaultRegistry struct {
	mu        sync.RWMutex
	order     []scenario.ID
	scenarios map[scenario.ID]scenario.Scenario
}

// NewRegistry creates a new, empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		scenarios: make(map[scenario.ID]scenario.Scenario),
	}
}

// Register adds a scenario to the registry. Returns an error
// if a scenario with the same ID is already registered.
func (r *DefaultRegistry) Register(s scenario.Scenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.ID()
	if id == "" {
		return fmt.Errorf("scenario %q has no id", s.Name())
	}
	if _, exists := r.scenarios[id]; exists {
		return fmt.Errorf("scenario already registered: %s", id)
	}

	r.scenarios[id] = s
	r.order = append(r.order, id)
	return nil
}

// RegisterAll registers every scenario, stopping at the first
// error.
func RegisterAll(reg Registry, scenarios ...scenario.Scenario) error {
	for _, s := range scenarios {
		if err := reg.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a scenario by ID.
func (r *DefaultRegistry) Get(id scenario.ID) (scenario.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.scenarios[id]
	if !exists {
		return scenario.Scenario{}, fmt.Errorf("scenario not found: %s", id)
	}
	return s, nil
}

// List returns all scenarios in registration order.
func (r *DefaultRegistry) List() []scenario.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]scenario.Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.scenarios[id])
	}
	return out
}

// ListByCategory returns the scenarios of one category.
func (r *DefaultRegistry) ListByCategory(category string) []scenario.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []scenario.Scenario
	for _, id := range r.order {
		if s := r.scenarios[id]; s.Category() == category {
			out = append(out, s)
		}
	}
	return out
}

// Categories returns the distinct non-empty categories.
func (r *DefaultRegistry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, s := range r.scenarios {
		if c := s.Category(); c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Clear removes all scenarios.
func (r *DefaultRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.order = nil
	r.scenarios = make(map[scenario.ID]scenario.Scenario)
}

// Count returns the number of registered scenarios.
func (r *DefaultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
