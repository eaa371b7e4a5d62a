package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHoldQueue_ParksUntilExplicitRemoval(t *testing.T) {
	m := New()
	h := m.NewHoldQueue("parking")
	var resumedAt float64 = -1
	var held *Process

	_, proc := m.NewEntity("e", func(p *Process) error {
		held = p
		require.NoError(t, p.Hold(h))
		resumedAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))

	_, _ = m.Schedule(3, PriorityResume, "release_with_delay", func() {
		require.Equal(t, 1, h.Len())
		require.NoError(t, h.RemoveAndResume(held, 2))
	})

	require.NoError(t, m.Run())

	require.Equal(t, float64(5), resumedAt)
	require.Equal(t, 0, h.Len())
}

func TestHoldQueue_RemoveAndContinueResumesAtCurrentInstant(t *testing.T) {
	m := New()
	h := m.NewHoldQueue("parking")
	var resumedAt float64 = -1
	var held *Process

	_, proc := m.NewEntity("e", func(p *Process) error {
		held = p
		require.NoError(t, p.Hold(h))
		resumedAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))

	_, _ = m.Schedule(4, PriorityResume, "release_now", func() {
		require.NoError(t, h.RemoveAndContinue(held))
	})

	require.NoError(t, m.Run())
	require.Equal(t, float64(4), resumedAt)
}
