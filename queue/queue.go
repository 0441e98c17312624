package queue

import "sync"

// Queue is an unbounded FIFO of shard ids awaiting (re)start.
// An id is held at most once; all methods are safe for concurrent use.
type Queue struct {
	mu    sync.Mutex
	ids   []int
	index map[int]struct{}
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{
		index: make(map[int]struct{}),
	}
}

// Enqueue appends id unless it is already queued. Returns true if id was added.
func (q *Queue) Enqueue(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.enqueueLocked(id)
}

// EnqueueAll appends every id not already queued, in order, and returns the ids added.
func (q *Queue) EnqueueAll(ids []int) []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := make([]int, 0, len(ids))
	for _, id := range ids {
		if q.enqueueLocked(id) {
			added = append(added, id)
		}
	}
	return added
}

func (q *Queue) enqueueLocked(id int) bool {
	if _, ok := q.index[id]; ok {
		return false
	}
	q.index[id] = struct{}{}
	q.ids = append(q.ids, id)
	return true
}

// Peek returns the head of the queue without removing it.
func (q *Queue) Peek() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ids) == 0 {
		return 0, false
	}
	return q.ids[0], true
}

// Remove deletes id wherever it sits in the queue. Returns false if it was not queued.
func (q *Queue) Remove(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.index[id]; !ok {
		return false
	}
	delete(q.index, id)

	for i, queued := range q.ids {
		if queued == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether id is queued.
func (q *Queue) Contains(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.index[id]
	return ok
}

// Len returns the number of queued ids.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.ids)
}

// Snapshot returns the queued ids in order.
func (q *Queue) Snapshot() []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]int, len(q.ids))
	copy(out, q.ids)
	return out
}

// Clear empties the queue and returns the ids it held, in order.
func (q *Queue) Clear() []int {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.ids
	q.ids = nil
	q.index = make(map[int]struct{})
	return out
}
