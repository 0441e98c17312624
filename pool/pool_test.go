package pool

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingPool counts Close calls.
type countingPool struct {
	closes atomic.Int32
}

func (p *countingPool) Submit(task func()) error {
	task()
	return nil
}

func (p *countingPool) Close() {
	p.closes.Add(1)
}

func TestExecutor_RunsSubmittedTasks(t *testing.T) {
	e := NewExecutor("test", 2)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, e.Submit(func() { ran.Add(1) }))
	}
	e.Close()

	assert.Equal(t, int32(10), ran.Load())
	assert.True(t, e.Closed())
}

func TestExecutor_RespectsLimit(t *testing.T) {
	e := NewExecutor("test", 1)

	var running, peak atomic.Int32
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Submit(func() {
			n := running.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			running.Add(-1)
		}))
	}
	e.Close()

	assert.Equal(t, int32(1), peak.Load())
}

func TestExecutor_SubmitAfterClose(t *testing.T) {
	e := NewExecutor("test", 0)
	e.Close()
	e.Close()

	assert.ErrorIs(t, e.Submit(func() {}), ErrClosed)
}

func TestAssignment_OwnedReleasedOnce(t *testing.T) {
	p := &countingPool{}
	a := Owned(p)
	copied := a

	assert.True(t, a.Release())
	assert.False(t, copied.Release())
	assert.False(t, a.Release())
	assert.Equal(t, int32(1), p.closes.Load())
}

func TestAssignment_BorrowedNeverReleased(t *testing.T) {
	p := &countingPool{}
	a := Borrowed(p)

	assert.False(t, a.Release())
	assert.False(t, a.AutoShutdown())
	assert.Equal(t, int32(0), p.closes.Load())
}

func TestAssignment_ZeroValue(t *testing.T) {
	var a Assignment

	assert.False(t, a.Valid())
	assert.False(t, a.Release())
}

func TestResolver_UsesProvidersAndSharedDefaults(t *testing.T) {
	embedder := &countingPool{}
	r := NewResolver(map[Kind]Provider{
		KindGateway:       PerShard(KindGateway, 1),
		KindEventDispatch: Shared(embedder),
	}, 4)

	set0, err := r.Resolve(0)
	require.NoError(t, err)
	set1, err := r.Resolve(1)
	require.NoError(t, err)

	assert.Len(t, set0, len(Kinds))
	assert.Equal(t, []Kind{KindGateway}, set0.Owned())
	assert.NotSame(t, set0.Get(KindGateway), set1.Get(KindGateway))
	assert.Same(t, set0.Get(KindCallback), set1.Get(KindCallback))
	assert.Same(t, embedder, set0.Get(KindEventDispatch))

	assert.Equal(t, 1, set0.Release())
	assert.Equal(t, 0, set0.Release())
	assert.Equal(t, int32(0), embedder.closes.Load())

	shared := set1.Get(KindCallback).(*Executor)
	assert.False(t, shared.Closed())

	r.Close()
	r.Close()
	assert.True(t, shared.Closed())
	assert.Equal(t, int32(0), embedder.closes.Load())
}

func TestResolver_ResolveAfterClose(t *testing.T) {
	r := NewResolver(nil, 1)
	r.Close()

	_, err := r.Resolve(0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestResolver_InvalidProviderFallsBack(t *testing.T) {
	r := NewResolver(map[Kind]Provider{
		KindAudio: ProviderFunc(func(int) Assignment { return Assignment{} }),
	}, 1)
	defer r.Close()

	set, err := r.Resolve(3)
	require.NoError(t, err)
	assert.NotNil(t, set.Get(KindAudio))
	assert.Empty(t, set.Owned())
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds {
		got, err := ParseKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	_, err := ParseKind("voice")
	assert.Error(t, err)
}
