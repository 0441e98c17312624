package lifecycle

import (
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHook_RegisterTwiceIsRejected(t *testing.T) {
	h1 := NewHook("hook-dup", func() {})
	h2 := NewHook("hook-dup", func() {})

	require.NoError(t, h1.Register())
	defer h1.Deregister()

	assert.ErrorIs(t, h2.Register(), ErrHookRegistered)
	assert.True(t, h1.Registered())
	assert.False(t, h2.Registered())
}

func TestHook_DeregisterIsPaired(t *testing.T) {
	h := NewHook("hook-pair", func() {})

	assert.False(t, h.Deregister())

	require.NoError(t, h.Register())
	assert.True(t, h.Deregister())
	assert.False(t, h.Deregister())

	require.NoError(t, h.Register())
	assert.True(t, h.Deregister())
}

func TestHook_FiresOnSignal(t *testing.T) {
	var fired atomic.Int32
	var h *Hook
	h = NewHook("hook-signal", func() {
		fired.Add(1)
		h.Deregister()
	}, syscall.SIGUSR1)

	require.NoError(t, h.Register())
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !h.Registered() }, time.Second, 10*time.Millisecond)
}
