package desim

// Blockage is an owner-controlled gate (spec §4.3): one process starts it,
// any number of other processes can suspend waiting for it to clear, and
// only the owner may clear it. StartBlockage creates it already Active,
// ClearBlockage moves it to Completed, and it cannot be reused once
// Completed.
type Blockage struct {
	name    string
	model   *Model
	owner   *Process
	state   BlockageState
	waiters *Queue[*blockageWaiter]
}

type blockageWaiter struct {
	proc *Process
}

// StartBlockage creates and activates a blockage owned by the calling
// process (spec §4.3). The owner must clear it before completing: a process
// that completes successfully with any blockage it started still Active
// fails with IllegalState (spec §3, §4.3 step 3).
func (p *Process) StartBlockage(name string) *Blockage {
	b := &Blockage{
		name:    name,
		model:   p.model,
		owner:   p,
		state:   BlockageActive,
		waiters: newQueue[*blockageWaiter](p.model, name+".blockage_waiters", Ranked),
	}
	if p.activeBlockages == nil {
		p.activeBlockages = make(map[*Blockage]struct{})
	}
	p.activeBlockages[b] = struct{}{}
	return b
}

// ClearBlockage completes b and resumes every current waiter, in
// priority/FIFO order. Only the owning process may call it; calling it from
// any other process is an illegal-state error (spec §4.3: owner-only
// clear).
func (p *Process) ClearBlockage(b *Blockage) error {
	if b.owner != p {
		return illegalState("Blockage", b.name, b.state.String(), BlockageCompleted.String(), "only the owning process may clear a blockage")
	}
	if b.state == BlockageCompleted {
		return nil
	}
	b.state = BlockageCompleted
	delete(p.activeBlockages, b)
	for {
		w, ok := b.waiters.Dequeue()
		if !ok {
			break
		}
		proc := w.proc
		_, _ = b.model.Schedule(0, b.model.prio.Blockage, "blockage_clear_resume", func() {
			b.model.resumeProcessGoroutine(proc, false)
		})
	}
	return nil
}

type blockageMembership struct {
	b *Blockage
	w *blockageWaiter
}

func (m blockageMembership) release() {
	m.b.waiters.Remove(func(x *blockageWaiter) bool { return x == m.w })
}

// WaitForBlockage suspends the calling process until b is cleared (spec
// §4.3). Returns immediately, without suspending, if b has already
// completed.
func (p *Process) WaitForBlockage(b *Blockage, priority Priority) error {
	if b.state == BlockageCompleted {
		return nil
	}
	w := &blockageWaiter{proc: p}
	b.waiters.Enqueue(w, priority)
	if e, ok := p.model.entities[p.entity]; ok {
		e.addMembership(blockageMembership{b: b, w: w})
	}
	return p.suspend("WaitForBlockage")
}
