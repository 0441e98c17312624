package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutIfAbsentGetRemove(t *testing.T) {
	r := New[string]()

	assert.True(t, r.PutIfAbsent(1, "one"))
	assert.False(t, r.PutIfAbsent(1, "uno"))

	v, ok := r.Get(1)
	require.True(t, ok)
	assert.Equal(t, "one", v)

	removed, ok := r.Remove(1)
	assert.True(t, ok)
	assert.Equal(t, "one", removed)

	_, ok = r.Remove(1)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Size())

	assert.True(t, r.PutIfAbsent(1, "uno"))
}

func TestRegistry_IDsSorted(t *testing.T) {
	r := New[int]()
	for _, id := range []int{3, 1, 4} {
		r.PutIfAbsent(id, id)
	}

	assert.Equal(t, []int{1, 3, 4}, r.IDs())
}

func TestRegistry_ForEachIsSnapshot(t *testing.T) {
	r := New[int]()
	for i := 0; i < 5; i++ {
		r.PutIfAbsent(i, i)
	}

	var seen []int
	r.ForEach(func(id int, v int) bool {
		seen = append(seen, id)
		r.Remove(id + 1)
		r.PutIfAbsent(100+id, id)
		return true
	})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, seen)
}

func TestRegistry_ForEachStops(t *testing.T) {
	r := New[int]()
	for i := 0; i < 5; i++ {
		r.PutIfAbsent(i, i)
	}

	count := 0
	r.ForEach(func(id int, v int) bool {
		count++
		return id < 1
	})

	assert.Equal(t, 2, count)
}

func TestRegistry_RemoveAll(t *testing.T) {
	r := New[int]()
	r.PutIfAbsent(1, 10)
	r.PutIfAbsent(2, 20)

	all := r.RemoveAll()

	assert.Equal(t, map[int]int{1: 10, 2: 20}, all)
	assert.Equal(t, 0, r.Size())
}

func TestRegistry_ConcurrentReadersAndWriters(t *testing.T) {
	r := New[int]()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.PutIfAbsent(base*100+i, i)
			}
		}(w)
	}
	for rd := 0; rd < 4; rd++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				r.ForEach(func(int, int) bool { return true })
				_ = r.Size()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, r.Size())
}
