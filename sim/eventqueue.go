package sim

import (
	"container/heap"
	"sync"

	"github.com/encodeous/nyroute/state"
)

// Event is something that happens at a point in simulated time.
type Event interface {
	Time() int64
}

// LinkEvent changes the cost of a link. A cost of state.LinkRemoved takes
// the link down.
type LinkEvent struct {
	At   int64
	Link state.Link
}

func (e LinkEvent) Time() int64 {
	return e.At
}

// DeliveryEvent hands a routing message to its destination node.
type DeliveryEvent struct {
	At    int64
	From  state.NodeId
	To    state.NodeId
	Msg   []byte
	Epoch uint64 // epoch of the link when the message was sent
}

func (e DeliveryEvent) Time() int64 {
	return e.At
}

type queuedEvent struct {
	evt Event
	seq uint64
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int {
	return len(h)
}

// Less orders events by time. Events at the same time keep the order they
// were scheduled in.
func (h eventHeap) Less(i, j int) bool {
	if h[i].evt.Time() != h[j].evt.Time() {
		return h[i].evt.Time() < h[j].evt.Time()
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	*h = old[0 : n-1]
	return evt
}

// EventQueue is a thread safe queue of events ordered by time.
type EventQueue struct {
	sync.Mutex
	events  eventHeap
	counter uint64
}

func NewEventQueue() *EventQueue {
	q := new(EventQueue)
	q.events = make(eventHeap, 0)
	heap.Init(&q.events)
	return q
}

func (q *EventQueue) Push(evt Event) {
	q.Lock()
	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.counter})
	q.counter++
	q.Unlock()
}

// Pop removes the earliest event, returning nil if the queue is empty.
func (q *EventQueue) Pop() Event {
	q.Lock()
	defer q.Unlock()
	if q.events.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.events).(queuedEvent).evt
}

// Peek returns the earliest event without removing it.
func (q *EventQueue) Peek() Event {
	q.Lock()
	defer q.Unlock()
	if q.events.Len() == 0 {
		return nil
	}
	return q.events[0].evt
}

func (q *EventQueue) Len() int {
	q.Lock()
	l := q.events.Len()
	q.Unlock()
	return l
}
