package source

import (
	"github.com/rotisserie/eris"

	"github.com/pegasus-osint/pegasus-bazooka/internal/model"
)

// Registry maps source tags to their adapters.
type Registry struct {
	adapters map[model.Source]Adapter
	order    []model.Source // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry. Adapters are registered
// incrementally during startup.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[model.Source]Adapter),
	}
}

// Register adds an adapter to the registry.
func (r *Registry) Register(a Adapter) {
	name := a.Name()
	r.adapters[name] = a
	r.order = append(r.order, name)
}

// Get returns an adapter by source tag.
func (r *Registry) Get(src model.Source) (Adapter, error) {
	a, ok := r.adapters[src]
	if !ok {
		return nil, eris.Errorf("source: unknown adapter %q", src)
	}
	return a, nil
}

// Select returns the adapters for the given source tags, or every
// configured adapter when the list is empty.
func (r *Registry) Select(sources []model.Source) ([]Adapter, error) {
	if len(sources) > 0 {
		result := make([]Adapter, 0, len(sources))
		for _, src := range sources {
			a, err := r.Get(src)
			if err != nil {
				return nil, err
			}
			result = append(result, a)
		}
		return result, nil
	}

	var result []Adapter
	for _, src := range r.order {
		if r.adapters[src].Configured() {
			result = append(result, r.adapters[src])
		}
	}
	return result, nil
}

// All returns all adapters in registration order.
func (r *Registry) All() []Adapter {
	result := make([]Adapter, 0, len(r.order))
	for _, src := range r.order {
		result = append(result, r.adapters[src])
	}
	return result
}
