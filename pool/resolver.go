package pool

import "sync"

// Resolver turns the configured providers into a Set for a shard.
// Kinds without a provider fall back to one default executor per kind,
// shared by all shards and closed only by Close.
type Resolver struct {
	providers   map[Kind]Provider
	defaultSize int

	mu       sync.Mutex
	defaults map[Kind]*Executor
	closed   bool
}

// NewResolver creates a Resolver. defaultSize bounds the shared default executors.
func NewResolver(providers map[Kind]Provider, defaultSize int) *Resolver {
	copied := make(map[Kind]Provider, len(providers))
	for kind, p := range providers {
		if p != nil {
			copied[kind] = p
		}
	}

	return &Resolver{
		providers:   copied,
		defaultSize: defaultSize,
		defaults:    make(map[Kind]*Executor),
	}
}

// Resolve returns the pools for shardID. Provided pools keep the ownership their
// provider declared; shared defaults are always borrowed.
// Returns ErrClosed if the resolver has been closed.
func (r *Resolver) Resolve(shardID int) (Set, error) {
	set := make(Set, len(Kinds))

	for _, kind := range Kinds {
		if p, ok := r.providers[kind]; ok {
			a := p.Provide(shardID)
			if a.Valid() {
				set[kind] = a
				continue
			}
		}

		e, err := r.shared(kind)
		if err != nil {
			set.Release()
			return nil, err
		}
		set[kind] = Borrowed(e)
	}

	return set, nil
}

func (r *Resolver) shared(kind Kind) (*Executor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	e, ok := r.defaults[kind]
	if !ok {
		e = NewExecutor(string(kind), r.defaultSize)
		r.defaults[kind] = e
	}
	return e, nil
}

// Close closes the shared default executors. Safe to call more than once.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	defaults := r.defaults
	r.defaults = make(map[Kind]*Executor)
	r.mu.Unlock()

	for _, e := range defaults {
		e.Close()
	}
}
