package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockage_ClearResumesWaitersAndOnlyOwnerMayClear(t *testing.T) {
	m := New()
	var blockage *Blockage
	var ownerResumedAt, waiterResumedAt float64 = -1, -1

	_, owner := m.NewEntity("owner", func(p *Process) error {
		blockage = p.StartBlockage("maintenance")
		require.NoError(t, p.Delay(3))
		ownerResumedAt = m.Now()
		return p.ClearBlockage(blockage)
	})
	require.NoError(t, m.Activate(owner, 0))

	_, waiter := m.NewEntity("waiter", func(p *Process) error {
		require.NoError(t, p.Delay(1)) // let the blockage start first
		require.NoError(t, p.WaitForBlockage(blockage, PriorityResume))
		waiterResumedAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(waiter, 0))

	require.NoError(t, m.Run())

	require.Equal(t, float64(3), ownerResumedAt)
	require.Equal(t, float64(3), waiterResumedAt)
}

func TestBlockage_NonOwnerClearIsIllegalState(t *testing.T) {
	m := New()
	var blockage *Blockage
	var clearErr error

	_, owner := m.NewEntity("owner", func(p *Process) error {
		blockage = p.StartBlockage("gate")
		if err := p.Delay(10); err != nil {
			return err
		}
		return p.ClearBlockage(blockage)
	})
	require.NoError(t, m.Activate(owner, 0))

	_, intruder := m.NewEntity("intruder", func(p *Process) error {
		clearErr = p.ClearBlockage(blockage)
		return nil
	})
	require.NoError(t, m.Activate(intruder, 1))

	require.NoError(t, m.Run())
	require.Error(t, clearErr)
	require.ErrorIs(t, clearErr, ErrIllegalState)
}

// TestBlockage_CompletingWithoutClearingIsIllegalState covers spec §4.3
// successful-completion step 3 and §8's testable Blockage property: a
// process that starts a blockage and returns without clearing it completes
// with a dangling Active blockage, which must surface as IllegalState rather
// than pass silently.
func TestBlockage_CompletingWithoutClearingIsIllegalState(t *testing.T) {
	m := New()
	var proc *Process

	_, proc = m.NewEntity("forgetful", func(p *Process) error {
		p.StartBlockage("never cleared")
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))

	err := m.Run()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrIllegalState)
	require.ErrorIs(t, proc.Err(), ErrIllegalState)
}
