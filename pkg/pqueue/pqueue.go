// Package pqueue implements an indexed max-priority-queue: a binary heap
// paired with a position index keyed by an external id, so callers can
// look up, promote, or demote an entry by id in O(log n) without a linear
// scan. The queue grows as entries are pushed; the capacity given to New
// only presizes it and is not enforced. AuPair (pkg/aupair) uses it to pick the next
// trigger string to remove and to re-prioritize neighbors after a removal
// changes their cost.
package pqueue

import "fmt"

// ErrUnknownID is returned by operations that require an id already
// present in the queue.
type ErrUnknownID[K comparable] struct{ ID K }

func (e ErrUnknownID[K]) Error() string { return fmt.Sprintf("pqueue: unknown id %v", e.ID) }

// ErrDuplicateID is returned by Push when id is already present —
// every id may appear at most once (spec invariant).
type ErrDuplicateID[K comparable] struct{ ID K }

func (e ErrDuplicateID[K]) Error() string { return fmt.Sprintf("pqueue: duplicate id %v", e.ID) }

type entry[K comparable] struct {
	id       K
	priority float64
}

// IndexedMaxPQ is a binary max-heap over (id, priority) pairs with O(log n)
// Push, Pop, Promote and Demote, and O(1) GetMax/Contains.
type IndexedMaxPQ[K comparable] struct {
	heap []entry[K]
	pos  map[K]int // id -> index into heap
}

// New returns an empty queue. capacity is a size hint, not a hard limit.
func New[K comparable](capacity int) *IndexedMaxPQ[K] {
	return &IndexedMaxPQ[K]{
		heap: make([]entry[K], 0, capacity),
		pos:  make(map[K]int, capacity),
	}
}

// Len returns the number of entries currently queued.
func (q *IndexedMaxPQ[K]) Len() int { return len(q.heap) }

// Contains reports whether id is currently queued.
func (q *IndexedMaxPQ[K]) Contains(id K) bool {
	_, ok := q.pos[id]
	return ok
}

// Push inserts id with the given priority. It is an error to push an id
// already present.
func (q *IndexedMaxPQ[K]) Push(id K, priority float64) error {
	if _, ok := q.pos[id]; ok {
		return ErrDuplicateID[K]{ID: id}
	}

	q.heap = append(q.heap, entry[K]{id: id, priority: priority})
	i := len(q.heap) - 1
	q.pos[id] = i
	q.siftUp(i)

	return nil
}

// GetMax returns the highest-priority entry without removing it.
func (q *IndexedMaxPQ[K]) GetMax() (id K, priority float64, ok bool) {
	if len(q.heap) == 0 {
		return id, 0, false
	}

	top := q.heap[0]

	return top.id, top.priority, true
}

// Pop removes and returns the highest-priority entry.
func (q *IndexedMaxPQ[K]) Pop() (id K, priority float64, ok bool) {
	if len(q.heap) == 0 {
		return id, 0, false
	}

	top := q.heap[0]
	last := len(q.heap) - 1

	q.swap(0, last)
	q.heap = q.heap[:last]
	delete(q.pos, top.id)

	if len(q.heap) > 0 {
		q.siftDown(0)
	}

	return top.id, top.priority, true
}

// Promote raises id's priority and restores heap order. It is valid to
// call Promote with a priority lower than the current one — like Demote,
// it simply re-establishes the invariant — but callers conventionally use
// Promote when the new priority is expected to be higher.
func (q *IndexedMaxPQ[K]) Promote(id K, priority float64) error {
	return q.update(id, priority)
}

// Demote lowers id's priority and restores heap order.
func (q *IndexedMaxPQ[K]) Demote(id K, priority float64) error {
	return q.update(id, priority)
}

func (q *IndexedMaxPQ[K]) update(id K, priority float64) error {
	i, ok := q.pos[id]
	if !ok {
		return ErrUnknownID[K]{ID: id}
	}

	old := q.heap[i].priority
	q.heap[i].priority = priority

	switch {
	case priority > old:
		q.siftUp(i)
	case priority < old:
		q.siftDown(i)
	}

	return nil
}

func (q *IndexedMaxPQ[K]) swap(i, j int) {
	q.heap[i], q.heap[j] = q.heap[j], q.heap[i]
	q.pos[q.heap[i].id] = i
	q.pos[q.heap[j].id] = j
}

func (q *IndexedMaxPQ[K]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.heap[parent].priority >= q.heap[i].priority {
			break
		}

		q.swap(parent, i)
		i = parent
	}
}

func (q *IndexedMaxPQ[K]) siftDown(i int) {
	n := len(q.heap)

	for {
		largest := i
		l, r := 2*i+1, 2*i+2

		if l < n && q.heap[l].priority > q.heap[largest].priority {
			largest = l
		}

		if r < n && q.heap[r].priority > q.heap[largest].priority {
			largest = r
		}

		if largest == i {
			return
		}

		q.swap(i, largest)
		i = largest
	}
}
