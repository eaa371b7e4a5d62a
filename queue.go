package desim

import "sort"

// QueueDiscipline selects how a Queue orders its members (spec §5,
// SPEC_FULL §12: ranked-by-priority with FIFO tie-break is an addition over
// the distilled spec's plain FIFO/LIFO).
type QueueDiscipline uint8

const (
	FIFO QueueDiscipline = iota
	LIFO
	Ranked
)

// Queue is the shared ordered-collection base used by hold queues, request
// queues, and any model-authored waiting line (spec §5). It publishes
// num-in-queue and time-in-queue observations to the owning Model's
// StatsSink, mirroring how the core never aggregates statistics itself
// (spec §6).
type Queue[T any] struct {
	name       string
	model      *Model
	discipline QueueDiscipline
	entries    []queueEntry[T]
	nextSeq    uint64
}

type queueEntry[T any] struct {
	value      T
	priority   Priority
	seq        uint64
	enqueuedAt float64
}

// NewQueue constructs a named queue under the given discipline.
func (m *Model) NewQueue(name string, discipline QueueDiscipline) *Queue[*Request] {
	return &Queue[*Request]{name: name, model: m, discipline: discipline}
}

func newQueue[T any](m *Model, name string, discipline QueueDiscipline) *Queue[T] {
	return &Queue[T]{name: name, model: m, discipline: discipline}
}

// Len returns the number of members currently queued.
func (q *Queue[T]) Len() int { return len(q.entries) }

// Enqueue adds value at the tail (FIFO/Ranked) or head (LIFO next-out) of
// the queue, ordered by priority for Ranked, with insertion order breaking
// ties (SPEC_FULL §12).
func (q *Queue[T]) Enqueue(value T, priority Priority) {
	q.nextSeq++
	e := queueEntry[T]{value: value, priority: priority, seq: q.nextSeq, enqueuedAt: q.model.now}
	q.entries = append(q.entries, e)
	if q.discipline == Ranked {
		sort.SliceStable(q.entries, func(i, j int) bool {
			if q.entries[i].priority != q.entries[j].priority {
				return q.entries[i].priority < q.entries[j].priority
			}
			return q.entries[i].seq < q.entries[j].seq
		})
	}
	q.publishLen()
}

// Dequeue removes and returns the head member (spec §5: FIFO discipline
// removes in arrival order; LIFO removes the most recently arrived; Ranked
// removes lowest-priority-first with FIFO tie-break).
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if len(q.entries) == 0 {
		return zero, false
	}
	var e queueEntry[T]
	switch q.discipline {
	case LIFO:
		e = q.entries[len(q.entries)-1]
		q.entries = q.entries[:len(q.entries)-1]
	default: // FIFO, Ranked
		e = q.entries[0]
		q.entries = q.entries[1:]
	}
	q.model.stats.TallyObserve(q.name+".time_in_queue", q.model.now-e.enqueuedAt)
	q.publishLen()
	return e.value, true
}

// Peek returns the head member without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	var zero T
	if len(q.entries) == 0 {
		return zero, false
	}
	switch q.discipline {
	case LIFO:
		return q.entries[len(q.entries)-1].value, true
	default:
		return q.entries[0].value, true
	}
}

// Remove deletes the first member matching pred, wherever it sits in the
// queue, without publishing a time-in-queue observation — the "without
// stats" removal spec §4.6 reserves for a request being terminated or moved
// out from under it (used to unwind a terminated entity's still-queued
// membership; spec §4.3).
func (q *Queue[T]) Remove(pred func(T) bool) bool {
	_, ok := q.remove(pred, false)
	return ok
}

// RemoveWithStats deletes the first member matching pred and publishes a
// time-in-queue observation for it, the same as Dequeue would — the normal,
// successful exit path spec §4.6 expects for anything besides termination or
// a move (e.g. HoldQueue's RemoveAndResume/RemoveAndContinue).
func (q *Queue[T]) RemoveWithStats(pred func(T) bool) bool {
	_, ok := q.remove(pred, true)
	return ok
}

func (q *Queue[T]) remove(pred func(T) bool, collectStats bool) (T, bool) {
	var zero T
	for i, e := range q.entries {
		if pred(e.value) {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			if collectStats {
				q.model.stats.TallyObserve(q.name+".time_in_queue", q.model.now-e.enqueuedAt)
			}
			q.publishLen()
			return e.value, true
		}
	}
	return zero, false
}

// All returns a snapshot of queued members in current order, head first.
func (q *Queue[T]) All() []T {
	out := make([]T, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.value
	}
	return out
}

func (q *Queue[T]) publishLen() {
	q.model.stats.TimeWeightedObserve(q.name+".num_in_queue", float64(len(q.entries)), q.model.now)
}
