package registry

import (
	"sync"
)

// Meta is the generic record kept for a registered entity. Domain wrappers
// interpret the Metadata map; the registry itself stays schema-free.
type Meta struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Active   bool              `json:"active"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Registry is a thread-safe in-memory store of entity metadata keyed by ID.
type Registry struct {
	entities map[string]Meta
	mu       sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entities: make(map[string]Meta),
	}
}

// Register adds or replaces an entity in the registry.
func (r *Registry) Register(id string, meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta.ID = id
	r.entities[id] = meta
}

// Get returns the metadata for the given ID and whether it is registered.
func (r *Registry) Get(id string) (Meta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.entities[id]
	return meta, ok
}

// IsRegistered reports whether an entity ID is registered.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[id]
	return ok
}

// ListRegistered returns all registered entity IDs in no particular order.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	return ids
}

// ListActive returns the IDs of all entities currently marked active.
func (r *Registry) ListActive() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0)
	for id, meta := range r.entities {
		if meta.Active {
			ids = append(ids, id)
		}
	}
	return ids
}

// Unregister removes an entity. It reports whether the entity existed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entities[id]; ok {
		delete(r.entities, id)
		return true
	}
	return false
}

// Count returns the number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Metadata returns one metadata value for an entity.
func (r *Registry) Metadata(id, key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if meta, ok := r.entities[id]; ok && meta.Metadata != nil {
		value, found := meta.Metadata[key]
		return value, found
	}
	return "", false
}
