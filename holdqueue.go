package desim

// HoldQueue parks processes indefinitely until a model author explicitly
// removes them (spec §4.3: Hold) — unlike every other suspension primitive,
// nothing about the core itself ever resumes a held process. Two removal
// operations are exposed: RemoveAndResume resumes the process after a given
// delay, RemoveAndContinue at the current instant. Both resume it through a
// scheduled event; neither runs the held process inside the removal call.
type HoldQueue struct {
	name    string
	model   *Model
	members *Queue[*holdMember]
}

type holdMember struct {
	proc *Process
}

// NewHoldQueue creates a named hold queue.
func (m *Model) NewHoldQueue(name string) *HoldQueue {
	return &HoldQueue{name: name, model: m, members: newQueue[*holdMember](m, name, FIFO)}
}

// Len returns the number of processes currently parked.
func (h *HoldQueue) Len() int { return h.members.Len() }

type holdMembership struct {
	h *HoldQueue
	m *holdMember
}

func (hm holdMembership) release() {
	hm.h.removeMember(hm.m.proc)
}

// Hold parks the calling process in h until RemoveAndResume or
// RemoveAndContinue is called against it from elsewhere in the model (spec
// §4.3).
func (p *Process) Hold(h *HoldQueue) error {
	mem := &holdMember{proc: p}
	h.members.Enqueue(mem, p.model.prio.Queue)
	if e, ok := p.model.entities[p.entity]; ok {
		e.addMembership(holdMembership{h: h, m: mem})
	}
	return p.suspend("Hold")
}

// RemoveAndResume removes target from h and schedules its resumption after
// delay virtual-time units (spec §4.3: "explicit removal... on a fresh
// timer").
func (h *HoldQueue) RemoveAndResume(target *Process, delay float64) error {
	if !h.removeMemberWithStats(target) {
		return illegalState("HoldQueue", h.name, "?", "?", "target is not parked in this hold queue")
	}
	_, err := h.model.Schedule(delay, h.model.prio.Resume, "hold_resume", func() {
		h.model.resumeProcessGoroutine(target, false)
	})
	return err
}

// RemoveAndContinue removes target from h and schedules its resumption at
// the current instant, as a zero-delay event at Resume priority (spec §4.3).
// The target does not run inside this call; it resumes when the executive
// reaches that event.
func (h *HoldQueue) RemoveAndContinue(target *Process) error {
	if !h.removeMemberWithStats(target) {
		return illegalState("HoldQueue", h.name, "?", "?", "target is not parked in this hold queue")
	}
	_, err := h.model.Schedule(0, h.model.prio.Resume, "hold_continue", func() {
		h.model.resumeProcessGoroutine(target, false)
	})
	return err
}

// removeMemberWithStats backs the two author-driven removal operations, and
// publishes a time-in-queue observation the same as any other queue exit
// (spec §6: the core never aggregates statistics itself, but every queue
// exit it drives publishes one).
func (h *HoldQueue) removeMemberWithStats(target *Process) bool {
	return h.members.RemoveWithStats(func(x *holdMember) bool { return x.proc == target })
}

// removeMember backs cascading membership cleanup (e.g. Terminate unwinding
// a still-held process), which is not a queue "exit" in the statistical
// sense — the process never got a normal resume out of the hold.
func (h *HoldQueue) removeMember(target *Process) bool {
	return h.members.Remove(func(x *holdMember) bool { return x.proc == target })
}
