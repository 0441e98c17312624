package pool

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Submit after the pool has been closed.
var ErrClosed = errors.New("pool closed")

// Kind identifies one of the task pools a shard session runs on.
type Kind string

const (
	// KindRateLimit runs REST rate-limit bookkeeping.
	KindRateLimit Kind = "rate_limit"

	// KindGateway runs gateway I/O tasks.
	KindGateway Kind = "gateway"

	// KindCallback runs user callbacks for asynchronous requests.
	KindCallback Kind = "callback"

	// KindEventDispatch runs event listener dispatch.
	KindEventDispatch Kind = "event_dispatch"

	// KindAudio runs voice connection tasks.
	KindAudio Kind = "audio"
)

// Kinds lists every pool kind in resolution order.
var Kinds = []Kind{KindRateLimit, KindGateway, KindCallback, KindEventDispatch, KindAudio}

// ParseKind returns the Kind named name.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown pool kind %q", name)
}

// Pool is a task pool handle.
type Pool interface {
	// Submit schedules task. It may block while the pool is saturated.
	// Returns ErrClosed once Close has been called.
	Submit(task func()) error

	// Close stops accepting tasks and waits for running tasks to finish.
	// Calling Close more than once is a no-op.
	Close()
}

// Executor is a bounded goroutine pool.
type Executor struct {
	name   string
	mu     sync.RWMutex
	group  errgroup.Group
	closed bool
	once   sync.Once
}

var _ Pool = (*Executor)(nil)

// NewExecutor creates an Executor running at most size tasks at once.
// A size of zero or less means unbounded.
func NewExecutor(name string, size int) *Executor {
	e := &Executor{name: name}
	if size > 0 {
		e.group.SetLimit(size)
	}
	return e
}

// Name returns the name the executor was created with.
func (e *Executor) Name() string {
	return e.name
}

// Submit implements Pool.
func (e *Executor) Submit(task func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return ErrClosed
	}

	e.group.Go(func() error {
		task()
		return nil
	})
	return nil
}

// Close implements Pool.
func (e *Executor) Close() {
	e.once.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		_ = e.group.Wait()
	})
}

// Closed reports whether Close has been called.
func (e *Executor) Closed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
