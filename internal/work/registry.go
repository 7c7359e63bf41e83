package work

import (
	"sort"
	"sync"
)

// Registry maps work type IDs to their definitions and keeps them in scan
// order: highest priority first, then by ID.
type Registry struct {
	byID  map[string]*WorkType
	order []*WorkType
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*WorkType)}
}

// scansBefore reports whether a is scanned before b.
func scansBefore(a, b *WorkType) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.ID < b.ID
}

// Register adds wt, replacing any type with the same ID.
func (r *Registry) Register(wt *WorkType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byID[wt.ID]; ok {
		for i, existing := range r.order {
			if existing == old {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.byID[wt.ID] = wt

	at := sort.Search(len(r.order), func(i int) bool { return scansBefore(wt, r.order[i]) })
	r.order = append(r.order, nil)
	copy(r.order[at+1:], r.order[at:])
	r.order[at] = wt
}

// Get returns the work type for id, or nil.
func (r *Registry) Get(id string) *WorkType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	return r.Get(id) != nil
}

// ByPriority returns a copy of the work types in scan order.
func (r *Registry) ByPriority() []*WorkType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*WorkType(nil), r.order...)
}

// Count returns the number of registered work types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// IDs returns the registered IDs in alphabetical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
