package lifecycle

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ErrHookRegistered indicates a hook with the same name is already registered
// in this process.
var ErrHookRegistered = errors.New("shutdown hook already registered")

var (
	hooksMu sync.Mutex
	hooks   = make(map[string]*Hook)
)

// Hook runs a function once when the process receives a termination signal.
type Hook struct {
	name    string
	fn      func()
	signals []os.Signal

	mu     sync.Mutex
	sigCh  chan os.Signal
	stopCh chan struct{}
}

// NewHook creates a hook named name that calls fn on SIGINT or SIGTERM.
// signals overrides the default signal set.
func NewHook(name string, fn func(), signals ...os.Signal) *Hook {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &Hook{
		name:    name,
		fn:      fn,
		signals: signals,
	}
}

// Register installs the hook. Returns ErrHookRegistered if a hook with the same
// name is already installed.
func (h *Hook) Register() error {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	if _, exists := hooks[h.name]; exists {
		return ErrHookRegistered
	}

	h.mu.Lock()
	h.sigCh = make(chan os.Signal, 1)
	h.stopCh = make(chan struct{})
	signal.Notify(h.sigCh, h.signals...)
	sigCh, stopCh := h.sigCh, h.stopCh
	h.mu.Unlock()

	hooks[h.name] = h

	go func() {
		select {
		case <-sigCh:
			h.fn()
		case <-stopCh:
		}
	}()

	return nil
}

// Deregister removes the hook. It does not wait for a running fn, so fn may
// call Deregister itself. Returns false if the hook was not registered.
func (h *Hook) Deregister() bool {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	if hooks[h.name] != h {
		return false
	}
	delete(hooks, h.name)

	h.mu.Lock()
	signal.Stop(h.sigCh)
	close(h.stopCh)
	h.mu.Unlock()

	return true
}

// Registered reports whether the hook is installed.
func (h *Hook) Registered() bool {
	hooksMu.Lock()
	defer hooksMu.Unlock()

	return hooks[h.name] == h
}
