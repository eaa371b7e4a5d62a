package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// ===========================================================================
// Tests for Resource seize/release and the num_busy invariant
// ===========================================================================

func TestResource_SeizeGrantsImmediatelyWhenCapacityAvailable(t *testing.T) {
	m := New()
	r := m.NewResource("server", 2)

	_, proc := m.NewEntity("customer", func(p *Process) error {
		alloc, err := p.Seize(r, 1)
		require.NoError(t, err)
		require.Equal(t, 1, alloc.Amount())
		require.Equal(t, 1, r.Busy())
		require.Equal(t, ResourceBusy, r.State())
		return m.Release(alloc)
	})
	require.NoError(t, m.Activate(proc, 0))
	require.NoError(t, m.Run())

	require.Equal(t, 0, r.Busy())
	require.Equal(t, ResourceIdle, r.State())
}

func TestResource_SeizeQueuesWhenOverCapacity(t *testing.T) {
	m := New()
	r := m.NewResource("server", 1)

	var secondGotAllocAt float64 = -1
	_, firstProc := m.NewEntity("first", func(p *Process) error {
		alloc, err := p.Seize(r, 1)
		require.NoError(t, err)
		require.NoError(t, p.Delay(10))
		return m.Release(alloc)
	})
	_, secondProc := m.NewEntity("second", func(p *Process) error {
		alloc, err := p.Seize(r, 1)
		require.NoError(t, err)
		secondGotAllocAt = m.Now()
		return m.Release(alloc)
	})

	require.NoError(t, m.Activate(firstProc, 0))
	require.NoError(t, m.Activate(secondProc, 0))
	require.NoError(t, m.Run())

	require.Equal(t, float64(10), secondGotAllocAt)
	require.Equal(t, 0, r.requestQ.Len())
}

func TestResource_ReleaseIsIdempotent(t *testing.T) {
	m := New()
	r := m.NewResource("server", 1)

	_, proc := m.NewEntity("customer", func(p *Process) error {
		alloc, err := p.Seize(r, 1)
		require.NoError(t, err)
		require.NoError(t, m.Release(alloc))
		require.NoError(t, m.Release(alloc)) // second release: no-op, not an error
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))
	require.NoError(t, m.Run())
	require.Equal(t, 0, r.Busy())
}

// TestResource_BusyNeverExceedsCapacity is the quantified invariant from
// spec §8: num_busy == Σ allocation.amount, and num_busy never exceeds
// capacity, across an arbitrary sequence of seize/release operations
// against a fixed-capacity resource with no queuing (amounts chosen to
// always fit).
func TestResource_BusyNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(rt, "capacity")
		m := New()
		r := m.NewResource("server", capacity)

		var allocs []*Allocation
		busy := 0

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(allocs) > 0 && rapid.Bool().Draw(rt, "release") {
				idx := rapid.IntRange(0, len(allocs)-1).Draw(rt, "idx")
				alloc := allocs[idx]
				allocs = append(allocs[:idx], allocs[idx+1:]...)
				require.NoError(t, m.Release(alloc))
				busy -= alloc.Amount()
			} else {
				if capacity-busy <= 0 {
					continue
				}
				amount := rapid.IntRange(1, capacity-busy).Draw(rt, "amount")
				_, proc := m.NewEntity("e", func(p *Process) error {
					alloc, err := p.Seize(r, amount)
					if err != nil {
						return err
					}
					allocs = append(allocs, alloc)
					return nil
				})
				require.NoError(t, m.Activate(proc, 0))
				require.NoError(t, m.Run())
				busy += amount
			}
			require.Equal(t, busy, r.Busy())
			require.LessOrEqual(t, r.Busy(), capacity)
		}
	})
}

func TestResource_SetCapacityReprocessesQueueOnce(t *testing.T) {
	m := New()
	r := m.NewResource("server", 1)

	var granted float64 = -1
	_, holder := m.NewEntity("holder", func(p *Process) error {
		_, err := p.Seize(r, 1)
		return err
	})
	_, waiter := m.NewEntity("waiter", func(p *Process) error {
		_, err := p.Seize(r, 1)
		granted = m.Now()
		return err
	})
	require.NoError(t, m.Activate(holder, 0))
	require.NoError(t, m.Activate(waiter, 0))

	_, _ = m.Schedule(5, PriorityResume, "bump_capacity", func() {
		require.NoError(t, m.SetCapacity(r, 2))
	})

	require.NoError(t, m.Run())
	require.Equal(t, float64(5), granted)
}
