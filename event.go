package desim

import "container/heap"

// Action is the callback invoked when a scheduled Event fires.
type Action func()

// EventID identifies a scheduled Event for cancellation purposes.
type EventID uint64

// Event is a scheduled action: (scheduled_time, priority, insertion_seq,
// action, payload, cancelled). Ordering is strictly by time ascending, ties
// broken by priority (smaller first), then insertion sequence — guaranteeing
// FIFO among equal-key events, extended here with a priority tie-break on
// top of plain time comparison.
type Event struct {
	ID        EventID
	Time      float64
	Priority  Priority
	Seq       uint64
	Name      string
	Action    Action
	Payload   any
	cancelled bool
}

// Cancel flags the event so the executive skips its action on fire. The
// event remains in the queue and is popped normally — no structural
// re-heap, per spec §4.1.
func (e *Event) Cancel() {
	if e != nil {
		e.cancelled = true
	}
}

// Cancelled reports whether Cancel has been called.
func (e *Event) Cancelled() bool { return e != nil && e.cancelled }

// eventHeap is a min-heap of *Event ordered by (Time, Priority, Seq): a
// container/heap.Interface over a slice, with the priority/seq tie-break
// layered on top of the time comparison.
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Seq < b.Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// eventQueue is the C1 clock-and-event-queue component: an ordered set of
// Events keyed by (time, priority, insertion-seq), with cancellation.
type eventQueue struct {
	heap    eventHeap
	nextID  EventID
	nextSeq uint64
}

func newEventQueue() *eventQueue {
	return &eventQueue{heap: make(eventHeap, 0, 64)}
}

// schedule inserts a new event at absolute virtual time at with the given
// priority. It does no validation: Model.Schedule computes at as now+delay
// and rejects a negative or non-finite delay (spec §4.1: InvalidArgument).
func (q *eventQueue) schedule(at float64, priority Priority, name string, action Action, payload any) *Event {
	q.nextID++
	q.nextSeq++
	e := &Event{
		ID:       q.nextID,
		Time:     at,
		Priority: priority,
		Seq:      q.nextSeq,
		Name:     name,
		Action:   action,
		Payload:  payload,
	}
	heap.Push(&q.heap, e)
	return e
}

func (q *eventQueue) empty() bool { return q.heap.Len() == 0 }

// pop removes and returns the minimum event, or nil if the queue is empty.
func (q *eventQueue) pop() *Event {
	if q.heap.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(*Event)
}

func (q *eventQueue) peekTime() (float64, bool) {
	if q.heap.Len() == 0 {
		return 0, false
	}
	return q.heap[0].Time, true
}
