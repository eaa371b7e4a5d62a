package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSignal_FireResumesAllWaitersInPriorityThenFIFOOrder is concrete
// scenario 3 from spec §8: ten entities wait_for(sig); firing it once
// resumes all of them at the fire instant, in priority+FIFO order.
func TestSignal_FireResumesAllWaitersInPriorityThenFIFOOrder(t *testing.T) {
	m := New()
	sig := m.NewSignal("ready")

	const n = 10
	var order []int
	var resumedAt [n]float64

	for i := 0; i < n; i++ {
		i := i
		_, proc := m.NewEntity("waiter", func(p *Process) error {
			require.NoError(t, p.WaitForSignal(sig, PriorityResume))
			order = append(order, i)
			resumedAt[i] = m.Now()
			return nil
		})
		require.NoError(t, m.Activate(proc, 0))
	}

	_, _ = m.Schedule(10, PriorityResume, "fire", func() {
		sig.Fire()
	})

	require.NoError(t, m.Run())

	require.Len(t, order, n)
	for i := 0; i < n; i++ {
		require.Equal(t, i, order[i], "waiters must resume in FIFO order among equal priority")
		require.Equal(t, float64(10), resumedAt[i])
	}
}

func TestSignal_WaiterRegisteredAfterFireMustWaitForNextFire(t *testing.T) {
	m := New()
	sig := m.NewSignal("ready")
	var resumedAt float64 = -1

	sig.Fire() // no waiters yet: a no-op

	_, proc := m.NewEntity("late", func(p *Process) error {
		require.NoError(t, p.WaitForSignal(sig, PriorityResume))
		resumedAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(proc, 1))

	_, _ = m.Schedule(5, PriorityResume, "fire_again", func() {
		sig.Fire()
	})

	require.NoError(t, m.Run())
	require.Equal(t, float64(5), resumedAt)
}
