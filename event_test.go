package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ===========================================================================
// Tests for eventQueue ordering
// ===========================================================================

func TestEventQueue_OrdersByTime(t *testing.T) {
	q := newEventQueue()
	var order []string
	q.schedule(5, PriorityResume, "c", func() { order = append(order, "c") }, nil)
	q.schedule(1, PriorityResume, "a", func() { order = append(order, "a") }, nil)
	q.schedule(3, PriorityResume, "b", func() { order = append(order, "b") }, nil)

	var times []float64
	for {
		e := q.pop()
		if e == nil {
			break
		}
		times = append(times, e.Time)
		e.Action()
	}

	require.Equal(t, []float64{1, 3, 5}, times)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEventQueue_SameTimeOrdersByPriorityThenSeq(t *testing.T) {
	q := newEventQueue()
	var order []string
	q.schedule(1, PriorityDelay, "second", func() { order = append(order, "second") }, nil)
	q.schedule(1, PriorityResume, "first", func() { order = append(order, "first") }, nil)
	q.schedule(1, PriorityResume, "first-again", func() { order = append(order, "first-again") }, nil)

	for {
		e := q.pop()
		if e == nil {
			break
		}
		e.Action()
	}

	require.Equal(t, []string{"first", "first-again", "second"}, order)
}

func TestEvent_CancelIsFlagOnly(t *testing.T) {
	q := newEventQueue()
	fired := false
	e := q.schedule(1, PriorityResume, "x", func() { fired = true }, nil)
	e.Cancel()
	require.True(t, e.Cancelled())

	popped := q.pop()
	require.Same(t, e, popped)
	require.True(t, popped.Cancelled())
	require.False(t, fired, "action must not run for a cancelled event")
}

func TestEventQueue_EmptyAfterDraining(t *testing.T) {
	q := newEventQueue()
	require.True(t, q.empty())
	q.schedule(1, PriorityResume, "x", func() {}, nil)
	require.False(t, q.empty())
	q.pop()
	require.True(t, q.empty())
	require.Nil(t, q.pop())
}
