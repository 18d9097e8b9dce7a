package rewards

import (
	"fmt"
	"sort"

	"github.com/shilph/art/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AdapterRegistry = (*Registry)(nil)

// Registry is the static adapter-id to adapter mapping.
type Registry struct {
	adapters map[string]driven.BalanceAdapter
}

// NewRegistry builds a registry holding every recipe in Recipes. It returns
// an error if a recipe is malformed or an id is registered twice.
func NewRegistry(prompter driven.Prompter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]driven.BalanceAdapter)}
	for _, recipe := range Recipes() {
		if err := recipe.Validate(); err != nil {
			return nil, err
		}
		if err := r.Register(recipe.ID, NewAdapter(recipe, prompter)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter under id.
func (r *Registry) Register(id string, adapter driven.BalanceAdapter) error {
	if _, dup := r.adapters[id]; dup {
		return fmt.Errorf("adapter %q registered twice", id)
	}
	r.adapters[id] = adapter
	return nil
}

// Lookup returns the adapter for id or driven.ErrAdapterNotFound.
func (r *Registry) Lookup(id string) (driven.BalanceAdapter, error) {
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("adapter %q: %w", id, driven.ErrAdapterNotFound)
	}
	return a, nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.adapters[id]
	return ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
