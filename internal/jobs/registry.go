package jobs

import (
	"fmt"
	"sort"
	"sync"
)

// Factory rehydrates the body of a job from its serialized options.
type Factory func(options string) (Runner, error)

// Registry maps job type names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for jobType.
func (r *Registry) Register(jobType string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[jobType] = f
}

// Has reports whether jobType is registered.
func (r *Registry) Has(jobType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[jobType]
	return ok
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build creates a job in StatusCreated from a record. The record's id, priority
// and run-at carry over.
func (r *Registry) Build(rec Record) (*Job, error) {
	r.mu.RLock()
	f, ok := r.factories[rec.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJobType, rec.Type)
	}

	runner, err := f(rec.Options)
	if err != nil {
		return nil, fmt.Errorf("building %s job from %q: %w", rec.Type, rec.Options, err)
	}

	opts := []Option{WithPriority(rec.Priority)}
	if !rec.RunAt.IsZero() {
		opts = append(opts, WithRunAt(rec.RunAt))
	}
	if rec.ID != 0 {
		opts = append(opts, WithRecordID(rec.ID))
	}
	return New(rec.Type, rec.Options, runner, opts...), nil
}
