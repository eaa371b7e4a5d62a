package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// ===========================================================================
// Tests for Process suspension, completion, and termination
// ===========================================================================

func TestProcess_DelayResumesAtExpectedTime(t *testing.T) {
	m := New()
	var resumedAt float64 = -1

	_, proc := m.NewEntity("e", func(p *Process) error {
		require.NoError(t, p.Delay(7))
		resumedAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))
	require.NoError(t, m.Run())

	require.Equal(t, float64(7), resumedAt)
	require.Equal(t, ProcessCompleted, proc.State())
}

func TestProcess_CompletionWakesWaitForProcess(t *testing.T) {
	m := New()
	var waiterResumedAt float64 = -1

	_, worker := m.NewEntity("worker", func(p *Process) error {
		return p.Delay(4)
	})
	_, waiter := m.NewEntity("waiter", func(p *Process) error {
		require.NoError(t, p.WaitForProcess(worker, 0, PriorityResume))
		waiterResumedAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(waiter, 0))
	require.NoError(t, m.Run())

	require.Equal(t, float64(4), waiterResumedAt)
}

func TestProcess_TerminatingCallerTerminatesCalledSubProcess(t *testing.T) {
	m := New()
	subRanPastDelay := false

	_, sub := m.NewEntity("sub", func(p *Process) error {
		require.NoError(t, p.Delay(100))
		subRanPastDelay = true
		return nil
	})
	_, caller := m.NewEntity("caller", func(p *Process) error {
		return p.WaitForProcess(sub, 0, PriorityResume)
	})
	require.NoError(t, m.Activate(caller, 0))

	_, _ = m.Schedule(1, PriorityResume, "terminate_caller", func() {
		require.NoError(t, m.Terminate(caller))
	})

	require.NoError(t, m.Run())

	require.False(t, subRanPastDelay)
	require.Equal(t, ProcessTerminated, sub.State())
}

func TestProcess_BlockUntilAllCompletedWaitsForEveryTarget(t *testing.T) {
	m := New()
	var doneAt float64 = -1

	_, a := m.NewEntity("a", func(p *Process) error { return p.Delay(3) })
	_, b := m.NewEntity("b", func(p *Process) error { return p.Delay(9) })
	_, waiter := m.NewEntity("waiter", func(p *Process) error {
		require.NoError(t, p.BlockUntilAllCompleted(a, b))
		doneAt = m.Now()
		return nil
	})
	require.NoError(t, m.Activate(a, 0))
	require.NoError(t, m.Activate(b, 0))
	require.NoError(t, m.Activate(waiter, 0))
	require.NoError(t, m.Run())

	require.Equal(t, float64(9), doneAt)
}

func TestProcess_TerminateSuspendedProcessIsRecoveredCleanly(t *testing.T) {
	m := New()
	ranAfterDelay := false

	_, target := m.NewEntity("target", func(p *Process) error {
		require.NoError(t, p.Delay(100))
		ranAfterDelay = true // must never execute: terminated mid-delay
		return nil
	})
	require.NoError(t, m.Activate(target, 0))

	_, _ = m.Schedule(1, PriorityResume, "terminate_target", func() {
		require.NoError(t, m.Terminate(target))
	})

	require.NoError(t, m.Run())

	require.False(t, ranAfterDelay)
	require.Equal(t, ProcessTerminated, target.State())
}

func TestProcess_TerminateIsIdempotent(t *testing.T) {
	m := New()
	_, target := m.NewEntity("target", func(p *Process) error {
		return p.Delay(100)
	})
	require.NoError(t, m.Activate(target, 0))

	_, _ = m.Schedule(1, PriorityResume, "terminate_twice", func() {
		require.NoError(t, m.Terminate(target))
		require.NoError(t, m.Terminate(target))
	})

	require.NoError(t, m.Run())
	require.Equal(t, ProcessTerminated, target.State())
}

func TestModel_AfterReplicationTerminatesEverySuspendedProcess(t *testing.T) {
	m := New(WithReplicationLength(5)) // stop well before the delay completes
	_, p := m.NewEntity("e", func(proc *Process) error {
		return proc.Delay(1000)
	})
	require.NoError(t, m.Activate(p, 0))
	require.NoError(t, m.Run())

	require.Equal(t, ProcessTerminated, p.State())
	require.Empty(t, m.suspended)
}
