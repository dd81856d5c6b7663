package core

import (
	"cmp"
	"container/heap"

	"github.com/encodeous/nyroute/state"
)

type pqEntry[T cmp.Ordered] struct {
	priority state.Cost
	count    uint64
	item     T
	removed  bool
}

type pqHeap[T cmp.Ordered] []*pqEntry[T]

func (h pqHeap[T]) Len() int {
	return len(h)
}

// Less orders entries by priority, then by insertion order, then by item.
func (h pqHeap[T]) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	if a.count != b.count {
		return a.count < b.count
	}
	return a.item < b.item
}

func (h pqHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *pqHeap[T]) Push(x any) {
	*h = append(*h, x.(*pqEntry[T]))
}

func (h *pqHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// PQueue is a min-priority queue that supports changing the priority of an
// item already in the queue. Replaced entries are invalidated in place and
// skipped when they reach the front.
type PQueue[T cmp.Ordered] struct {
	h       pqHeap[T]
	entries map[T]*pqEntry[T]
	counter uint64
}

func NewPQueue[T cmp.Ordered]() *PQueue[T] {
	return &PQueue[T]{
		h:       make(pqHeap[T], 0),
		entries: make(map[T]*pqEntry[T]),
	}
}

// Push adds item with the given priority, replacing its previous priority if
// it is already queued.
func (q *PQueue[T]) Push(item T, priority state.Cost) {
	if old, ok := q.entries[item]; ok {
		old.removed = true
	}
	e := &pqEntry[T]{
		priority: priority,
		count:    q.counter,
		item:     item,
	}
	q.counter++
	q.entries[item] = e
	heap.Push(&q.h, e)
}

// Pop removes and returns the item with the lowest priority. ok is false if
// the queue is empty.
func (q *PQueue[T]) Pop() (item T, priority state.Cost, ok bool) {
	for q.h.Len() > 0 {
		e := heap.Pop(&q.h).(*pqEntry[T])
		if e.removed {
			continue
		}
		delete(q.entries, e.item)
		return e.item, e.priority, true
	}
	return item, 0, false
}

// Len returns the number of live items.
func (q *PQueue[T]) Len() int {
	return len(q.entries)
}

func (q *PQueue[T]) IsEmpty() bool {
	return len(q.entries) == 0
}
