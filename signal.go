package desim

// Signal is a fire-and-forget fan-out primitive (spec §4.3: WaitForSignal):
// any number of processes can suspend waiting on it, and firing it resumes
// every current waiter, in priority order with FIFO tie-break among equal
// priorities (spec §5, SPEC_FULL §12).
type Signal struct {
	name    string
	model   *Model
	waiters *Queue[*signalWaiter]
}

type signalWaiter struct {
	proc *Process
}

// NewSignal creates a named signal.
func (m *Model) NewSignal(name string) *Signal {
	return &Signal{name: name, model: m, waiters: newQueue[*signalWaiter](m, name+".waiters", Ranked)}
}

// Fire resumes every process currently waiting on s, in priority/FIFO order
// (spec §4.3). Processes that call WaitForSignal after Fire returns must
// wait for the next Fire; there is no latched/sticky state.
func (s *Signal) Fire() {
	for {
		w, ok := s.waiters.Dequeue()
		if !ok {
			return
		}
		proc := w.proc
		_, _ = s.model.Schedule(0, s.model.prio.WaitFor, "signal_resume", func() {
			s.model.resumeProcessGoroutine(proc, false)
		})
	}
}

// signalMembership cancels a still-waiting registration when the waiting
// entity is terminated before the signal fires.
type signalMembership struct {
	s *Signal
	w *signalWaiter
}

func (m signalMembership) release() {
	m.s.waiters.Remove(func(x *signalWaiter) bool { return x == m.w })
}

// WaitForSignal suspends the calling process until s.Fire is called (spec
// §4.3). priority controls fan-out order relative to other waiters on the
// same signal (SPEC_FULL §12).
func (p *Process) WaitForSignal(s *Signal, priority Priority) error {
	w := &signalWaiter{proc: p}
	s.waiters.Enqueue(w, priority)
	if e, ok := p.model.entities[p.entity]; ok {
		e.addMembership(signalMembership{s: s, w: w})
	}
	return p.suspend("WaitForSignal")
}
