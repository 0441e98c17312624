package registry

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Registry maps shard ids to live values.
// Writers serialize on a mutex and publish a fresh copy of the map;
// readers load the current copy without locking.
type Registry[V any] struct {
	mu      sync.Mutex
	current atomic.Pointer[map[int]V]
}

// New creates an empty Registry.
func New[V any]() *Registry[V] {
	r := &Registry[V]{}
	empty := make(map[int]V)
	r.current.Store(&empty)
	return r
}

func (r *Registry[V]) load() map[int]V {
	return *r.current.Load()
}

// mutate copies the current map, applies fn and publishes the result.
// Caller must hold r.mu.
func (r *Registry[V]) mutate(fn func(m map[int]V)) {
	old := r.load()
	next := make(map[int]V, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	fn(next)
	r.current.Store(&next)
}

// PutIfAbsent installs v under id unless id is already present.
// Returns false if an existing value was kept.
func (r *Registry[V]) PutIfAbsent(id int, v V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.load()[id]; ok {
		return false
	}
	r.mutate(func(m map[int]V) { m[id] = v })
	return true
}

// Remove deletes id and returns the value it held.
func (r *Registry[V]) Remove(id int) (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.load()[id]
	if !ok {
		return prev, false
	}
	r.mutate(func(m map[int]V) { delete(m, id) })
	return prev, true
}

// RemoveAll empties the registry and returns what it held, keyed by id.
func (r *Registry[V]) RemoveAll() map[int]V {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.load()
	empty := make(map[int]V)
	r.current.Store(&empty)
	return old
}

// Get returns the value stored under id.
func (r *Registry[V]) Get(id int) (V, bool) {
	v, ok := r.load()[id]
	return v, ok
}

// Size returns the number of entries.
func (r *Registry[V]) Size() int {
	return len(r.load())
}

// IDs returns the registered ids in ascending order.
func (r *Registry[V]) IDs() []int {
	m := r.load()
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ForEach calls fn for every entry of a snapshot, in ascending id order,
// until fn returns false. Concurrent writes do not affect the iteration.
func (r *Registry[V]) ForEach(fn func(id int, v V) bool) {
	m := r.load()
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if !fn(id, m[id]) {
			return
		}
	}
}
