package pool

import (
	"sort"
	"sync"
)

// Assignment is a pool handle tagged with its ownership.
// When AutoShutdown is true the holder of the assignment closes the pool on release;
// otherwise the pool belongs to someone else and Release leaves it open.
type Assignment struct {
	pool         Pool
	autoShutdown bool
	once         *sync.Once
}

// Owned returns an assignment whose pool is closed on Release.
func Owned(p Pool) Assignment {
	return Assignment{pool: p, autoShutdown: true, once: &sync.Once{}}
}

// Borrowed returns an assignment whose pool is never closed by Release.
func Borrowed(p Pool) Assignment {
	return Assignment{pool: p}
}

// Pool returns the underlying handle.
func (a Assignment) Pool() Pool {
	return a.pool
}

// AutoShutdown reports whether Release closes the pool.
func (a Assignment) AutoShutdown() bool {
	return a.autoShutdown
}

// Valid reports whether the assignment carries a pool.
func (a Assignment) Valid() bool {
	return a.pool != nil
}

// Release closes the pool if it is owned. Copies of an owned assignment share
// the same guard, so the pool is closed at most once.
// Returns true if this call closed the pool.
func (a Assignment) Release() bool {
	if !a.autoShutdown || a.pool == nil || a.once == nil {
		return false
	}

	closed := false
	a.once.Do(func() {
		a.pool.Close()
		closed = true
	})
	return closed
}

// Provider supplies the pool of one kind for a shard.
type Provider interface {
	Provide(shardID int) Assignment
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(shardID int) Assignment

// Provide implements Provider.
func (f ProviderFunc) Provide(shardID int) Assignment {
	return f(shardID)
}

// PerShard returns a provider creating a fresh owned Executor of the given size per shard.
func PerShard(kind Kind, size int) Provider {
	return ProviderFunc(func(shardID int) Assignment {
		return Owned(NewExecutor(string(kind), size))
	})
}

// Shared returns a provider handing the same embedder-owned pool to every shard.
// The pool is never closed by the orchestrator.
func Shared(p Pool) Provider {
	return ProviderFunc(func(shardID int) Assignment {
		return Borrowed(p)
	})
}

// Set is the collection of pools resolved for one shard.
type Set map[Kind]Assignment

// Get returns the pool of the given kind, or nil if none was resolved.
func (s Set) Get(kind Kind) Pool {
	a, ok := s[kind]
	if !ok {
		return nil
	}
	return a.pool
}

// Owned returns the kinds whose pools are released with the set, sorted.
func (s Set) Owned() []Kind {
	kinds := make([]Kind, 0, len(s))
	for kind, a := range s {
		if a.autoShutdown {
			kinds = append(kinds, kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Release releases every assignment in the set and returns how many pools were closed.
func (s Set) Release() int {
	n := 0
	for _, a := range s {
		if a.Release() {
			n++
		}
	}
	return n
}
