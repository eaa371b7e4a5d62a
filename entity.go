package desim

// Entity is the C4 unit of flow: a token moving through the model, driven by
// one Process body at a time. Entities carry no behavior of their own — all
// of it lives in the process — they exist so the core has something to
// attach state, queue/resource memberships, and statistics to that outlives
// any single suspension.
type Entity struct {
	handle EntityHandle
	model  *Model
	name   string
	state  EntityState

	process *Process

	// memberships lists every queue/resource/signal/blockage registration
	// currently held on behalf of this entity, so Terminate can unwind all
	// of them without each primitive needing to know about every other one.
	memberships []membership
}

// membership is anything an entity can be a party to that must be released
// on termination: a resource allocation, a position in a wait queue, a
// registration with a signal, or a blockage wait.
type membership interface {
	release()
}

// NewEntity creates an entity and its driving process in one step (spec
// §4.3: a generator "creates an Entity, then activates its Process"). The
// process is Created but not yet Activated.
func (m *Model) NewEntity(name string, body func(p *Process) error) (*Entity, *Process) {
	m.nextEntID++
	e := &Entity{handle: m.nextEntID, model: m, name: name, state: EntityCreated}
	m.entities[e.handle] = e
	p := m.NewProcess(e.handle, name, body)
	e.process = p
	return e, p
}

// Handle returns the entity's arena handle.
func (e *Entity) Handle() EntityHandle { return e.handle }

// State returns the entity's current state-machine value.
func (e *Entity) State() EntityState { return e.state }

// Process returns the process driving this entity.
func (e *Entity) Process() *Process { return e.process }

func (e *Entity) addMembership(m membership) {
	e.memberships = append(e.memberships, m)
}

func (e *Entity) removeMembership(m membership) {
	for i, x := range e.memberships {
		if x == m {
			e.memberships = append(e.memberships[:i], e.memberships[i+1:]...)
			return
		}
	}
}

// releaseEntityMemberships releases every queue/resource/signal/blockage
// registration the entity currently holds (spec §4.3 step in Terminate:
// "release all resources and queue memberships held by the entity"). Each
// membership's release is independently idempotent, so the order here
// doesn't matter and a release that triggers a cascading termination
// elsewhere in the model is tolerated.
func (m *Model) releaseEntityMemberships(handle EntityHandle) {
	e, ok := m.entities[handle]
	if !ok {
		return
	}
	memberships := e.memberships
	e.memberships = nil
	for _, mem := range memberships {
		mem.release()
	}
}

// waitGroup tracks one BlockUntilAllCompleted/WaitForProcess registration:
// proc resumes once remaining reaches zero, at the given priority.
type waitGroup struct {
	remaining int
	proc      *Process
	priority  Priority
}

// registerWaiter records that wg.proc is waiting on target to finish.
func (m *Model) registerWaiter(target *Process, wg *waitGroup) {
	m.waitersByTarget[target.handle] = append(m.waitersByTarget[target.handle], wg)
}

// notifyProcessWaiters wakes every WaitForProcess/BlockUntilAllCompleted
// caller whose last outstanding target was p (spec §4.3: successful
// completion and termination both "wake any process blocked waiting on
// this process").
func (m *Model) notifyProcessWaiters(p *Process) {
	wgs := m.waitersByTarget[p.handle]
	delete(m.waitersByTarget, p.handle)
	for _, wg := range wgs {
		wg.remaining--
		if wg.remaining == 0 {
			proc := wg.proc
			_, _ = m.Schedule(0, wg.priority, "wait_for_process_resume", func() {
				m.resumeProcessGoroutine(proc, false)
			})
		}
	}
}

// WaitForProcess activates target at now+delay (spec §4.3: target must be
// freshly Created, i.e. not yet activated — calling it on an
// already-running, suspended, or finished process is an illegal-state
// error, since the caller/callee link it establishes only makes sense for
// a process it is itself starting), records the caller/callee link, then
// suspends until target completes or is terminated.
func (p *Process) WaitForProcess(target *Process, delay float64, priority Priority) error {
	if target.state != ProcessCreated {
		return illegalState("Process", target.name, target.state.String(), ProcessRunning.String(), "WaitForProcess requires a not-yet-activated target")
	}
	if target.entity == p.entity {
		return invalidArgument("WaitForProcess", "target", target.name)
	}
	if err := p.model.Activate(target, delay); err != nil {
		return err
	}
	target.callingProcess = p
	p.calledProcess = target
	p.model.registerWaiter(target, &waitGroup{remaining: 1, proc: p, priority: priority})
	return p.suspend("WaitForProcess")
}

// BlockUntilAllCompleted suspends the calling process until every process in
// targets has completed (spec §4.3). Returns immediately if every target has
// already completed, including when targets is empty. It is an
// illegal-state error if any target has already terminated: unlike a clean
// completion, termination is not something this call silently tolerates.
func (p *Process) BlockUntilAllCompleted(targets ...*Process) error {
	remaining := 0
	for _, t := range targets {
		if t.state == ProcessTerminated {
			return illegalState("Process", t.name, t.state.String(), ProcessCompleted.String(), "BlockUntilAllCompleted target has already terminated")
		}
		if t.state != ProcessCompleted {
			remaining++
		}
	}
	if remaining == 0 {
		return nil
	}
	wg := &waitGroup{remaining: remaining, proc: p, priority: p.model.prio.Resume}
	for _, t := range targets {
		if t.state != ProcessCompleted {
			p.model.registerWaiter(t, wg)
		}
	}
	return p.suspend("BlockUntilAllCompleted")
}
