package collection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aluzed/massive-collections/pkg/types"
)

// Registry maps table names to collections. It holds at most one
// collection per name; registering a name again replaces the previous
// entry.
type Registry struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{collections: make(map[string]*Collection)}
}

// Register stores c under its table name.
func (r *Registry) Register(c *Collection) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[c.Name()] = c
}

// GetModel returns the collection registered under name.
func (r *Registry) GetModel(name string) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", types.ErrInvalidFormat)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%s is missing in collections: %w", name, types.ErrNotFound)
	}
	return c, nil
}

// Names returns the registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
