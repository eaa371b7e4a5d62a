package desim

// Process is the C3 coroutine runtime: a resumable procedure bound to one
// Entity. Go has no stackful fibers, so each live Process is backed by its
// own goroutine; control is handed between that goroutine and the executive
// goroutine by a strict, unbuffered-channel rendezvous — never more than one
// of the two sides is running model logic at a time. This follows the
// worker-goroutine handoff idiom used elsewhere for one-goroutine,
// signalled-in-lockstep control transfer, generalized here into a two-way
// resume/yield ping-pong.
type Process struct {
	handle ProcessHandle
	model  *Model
	entity EntityHandle
	name   string

	body func(p *Process) error

	state          ProcessState
	suspensionName string

	// resumeCh carries control from the executive into the blocked process
	// goroutine; yieldCh carries it back. Both are unbuffered so a send
	// only completes once the other side is actually waiting on it.
	resumeCh chan resumeSignal
	yieldCh  chan struct{}

	started bool
	err     error

	// activeBlockages is the set of Blockage instances this process has
	// started via StartBlockage but not yet cleared via ClearBlockage (spec
	// §3, §4.3 step 3: "Assert no active blockages" at successful
	// completion, else fail with IllegalState).
	activeBlockages map[*Blockage]struct{}

	// resumeEvent is the pending scheduled event that will next wake this
	// process, if any (so a concurrent Terminate can cancel it).
	resumeEvent *Event

	// callingProcess/calledProcess record the link established by
	// WaitForProcess (spec §4.3): terminating either end of the link
	// terminates the other (termination steps 4 and 5).
	callingProcess *Process
	calledProcess  *Process
}

type resumeSignal struct {
	kill bool
}

// NewProcess registers a process body against an entity. The process does
// not begin running until Activate is called (spec §4.3: a process starts
// "Created").
func (m *Model) NewProcess(entity EntityHandle, name string, body func(p *Process) error) *Process {
	m.nextProcID++
	p := &Process{
		handle:   m.nextProcID,
		model:    m,
		entity:   entity,
		name:     name,
		body:     body,
		state:    ProcessCreated,
		resumeCh: make(chan resumeSignal),
		yieldCh:  make(chan struct{}),
	}
	m.processes[p.handle] = p
	return p
}

// Handle returns the process's arena handle.
func (p *Process) Handle() ProcessHandle { return p.handle }

// State returns the process's current lifecycle state.
func (p *Process) State() ProcessState { return p.state }

// Err returns the error the process body returned (or the completion-time
// assertion failure that replaced it), once the process has completed. It
// is nil before completion and for a process that completed successfully.
func (p *Process) Err() error { return p.err }

// Entity returns the handle of the entity this process runs on behalf of.
func (p *Process) Entity() EntityHandle { return p.entity }

// Activate schedules the process's first run after delay virtual-time units
// (spec §4.3: "Created" -> "Running"). Activating a process more than once
// (even before its first activation has fired) is an illegal-state error,
// and so is activating a process on an entity that already has another
// process current or pending (spec §7): an entity traverses processes one at
// a time.
func (m *Model) Activate(p *Process, delay float64) error {
	if p.state != ProcessCreated || p.resumeEvent != nil {
		return illegalState("Process", p.name, p.state.String(), ProcessRunning.String(), "Activate called on a non-Created or already-activated process")
	}
	if e, ok := m.entities[p.entity]; ok {
		if cur := e.process; cur != nil && cur != p && (cur.state == ProcessRunning || cur.state == ProcessSuspended || (cur.state == ProcessCreated && cur.resumeEvent != nil)) {
			return illegalState("Process", p.name, p.state.String(), ProcessRunning.String(), "entity already has a current or pending process")
		}
		e.process = p
	}
	evt, err := m.Schedule(delay, m.prio.Resume, "process_activate", func() {
		m.runProcessGoroutine(p)
	})
	if err != nil {
		return err
	}
	p.resumeEvent = evt
	return nil
}

// runProcessGoroutine starts the process's backing goroutine and blocks
// until it yields control back (by suspending or finishing). Only ever
// called from the executive goroutine. A process terminated before its
// activation fired is not started.
func (m *Model) runProcessGoroutine(p *Process) {
	if p.state != ProcessCreated {
		return
	}
	p.state = ProcessRunning
	p.started = true
	p.resumeEvent = nil
	m.activeProcessGoroutine = true
	go p.runBody()
	<-p.yieldCh
	m.activeProcessGoroutine = false
}

// resumeProcessGoroutine hands control to an already-started, suspended
// process goroutine and blocks until it yields again. A resume event that
// fires after the process has already terminated or completed is ignored.
func (m *Model) resumeProcessGoroutine(p *Process, kill bool) {
	if p.state != ProcessSuspended {
		return
	}
	m.activeProcessGoroutine = true
	p.resumeCh <- resumeSignal{kill: kill}
	<-p.yieldCh
	m.activeProcessGoroutine = false
}

// runBody is the entry point of a process's backing goroutine.
func (p *Process) runBody() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(processTerminatedSignal); ok {
				p.state = ProcessTerminated
			} else {
				p.state = ProcessTerminated
				p.yieldCh <- struct{}{}
				panic(r) // not ours to swallow; re-panic after unwinding bookkeeping
			}
		}
		p.yieldCh <- struct{}{}
	}()

	err := p.body(p)
	if p.state == ProcessTerminated {
		// Terminate() raced the body's own natural return; the panic path
		// above already handles bookkeeping, nothing left to do.
		return
	}
	if err == nil && len(p.activeBlockages) > 0 {
		err = illegalState("Process", p.name, ProcessRunning.String(), ProcessCompleted.String(), "process completed with active blockages still uncleared")
	}
	p.err = err
	p.state = ProcessCompleted
	if err != nil {
		p.model.recordProcessError(err)
	}
	p.completeEntity()
}

// completeEntity implements the successful-completion contract (spec §4.3):
// the owning entity transitions to ProcessEnded and any parties blocked on
// BlockUntilAllCompleted or WaitForProcess against this process are woken.
func (p *Process) completeEntity() {
	if e, ok := p.model.entities[p.entity]; ok {
		e.state = EntityProcessEnded
	}
	p.model.notifyProcessWaiters(p)
}

// suspend is the shared body of every suspension primitive: record the
// suspension, hand control back to the executive, and block until resumed.
// Callers must have already arranged for something to eventually resume this
// process (a scheduled event, a queue/signal registration, …).
func (p *Process) suspend(primitive string) error {
	p.suspensionName = primitive
	p.state = ProcessSuspended
	p.model.suspended[p.handle] = struct{}{}
	p.model.logSuspend(p, primitive)
	if e, ok := p.model.entities[p.entity]; ok {
		e.state = entityStateForSuspension(primitive)
	}

	var endSpan func()
	if p.model.tracer != nil {
		endSpan = p.model.tracer.StartSpan(primitive, p.model.now, nil)
	}
	p.yieldCh <- struct{}{}
	sig := <-p.resumeCh
	if endSpan != nil {
		endSpan()
	}

	delete(p.model.suspended, p.handle)
	if sig.kill {
		panic(processTerminatedSignal{})
	}
	p.state = ProcessRunning
	p.resumeEvent = nil
	if e, ok := p.model.entities[p.entity]; ok {
		e.state = EntityActive
	}
	p.model.logResume(p)
	return nil
}

// entityStateForSuspension maps a suspension primitive's name to the
// entity-level state it implies (spec §4.4). Primitives with no dedicated
// entity state (Yield, the delay-interrupt variants) fall back to
// EntityScheduled: the entity has something pending, but isn't parked in any
// of the named waiting structures.
func entityStateForSuspension(primitive string) EntityState {
	switch primitive {
	case "Delay", "Yield":
		return EntityScheduled
	case "Hold":
		return EntityInHoldQueue
	case "Seize", "SeizeWithPriority", "SeizeFromPool":
		return EntityWaitingForResource
	case "WaitForSignal":
		return EntityWaitingForSignal
	case "WaitForBatch":
		return EntityWaitingForBatch
	case "Send":
		return EntityBlockedSending
	case "WaitForItems":
		return EntityBlockedReceiving
	case "WaitForProcess":
		return EntityWaitForProcess
	case "BlockUntilAllCompleted":
		return EntityBlockedUntilCompletion
	case "WaitForBlockage":
		return EntityWaitingForSignal
	default:
		return EntityScheduled
	}
}

// Delay suspends the process for d virtual-time units (spec §4.3).
func (p *Process) Delay(d float64) error {
	if d < 0 {
		return invalidArgument("Delay", "d", d)
	}
	evt, err := p.model.Schedule(d, p.model.prio.Resume, "delay_resume", func() {
		p.model.resumeProcessGoroutine(p, false)
	})
	if err != nil {
		return err
	}
	p.resumeEvent = evt
	return p.suspend("Delay")
}

// Yield suspends the process for zero virtual-time units, scheduled at the
// table's Yield priority: events already scheduled at the current instant
// with an equal or lower priority value run first, ones with a higher value
// run after it (spec §4.3).
func (p *Process) Yield() error {
	evt, err := p.model.Schedule(0, p.model.prio.Yield, "process_yield", func() {
		p.model.resumeProcessGoroutine(p, false)
	})
	if err != nil {
		return err
	}
	p.resumeEvent = evt
	return p.suspend("Yield")
}

// InterruptDelayRestart cancels an in-progress Delay and schedules a brand
// new delay of newDelay units starting now (SPEC_FULL §12: a distinct
// exported operation from InterruptDelayContinue).
func (m *Model) InterruptDelayRestart(p *Process, newDelay float64) error {
	if p.state != ProcessSuspended || p.suspensionName != "Delay" {
		return illegalState("Process", p.name, p.state.String(), "Suspended(Delay)", "InterruptDelayRestart requires a process currently delaying")
	}
	if p.resumeEvent != nil {
		p.resumeEvent.Cancel()
	}
	evt, err := m.Schedule(newDelay, m.prio.Resume, "delay_resume", func() {
		m.resumeProcessGoroutine(p, false)
	})
	if err != nil {
		return err
	}
	p.resumeEvent = evt
	return nil
}

// InterruptDelayContinue cancels an in-progress Delay and resumes the
// process immediately, as though the delay had completed at the interrupt
// time rather than its originally scheduled time (SPEC_FULL §12).
func (m *Model) InterruptDelayContinue(p *Process) error {
	if p.state != ProcessSuspended || p.suspensionName != "Delay" {
		return illegalState("Process", p.name, p.state.String(), "Suspended(Delay)", "InterruptDelayContinue requires a process currently delaying")
	}
	if p.resumeEvent != nil {
		p.resumeEvent.Cancel()
	}
	_, err := m.Schedule(0, m.prio.Resume, "delay_resume", func() {
		m.resumeProcessGoroutine(p, false)
	})
	return err
}

// Terminate immediately ends a process (spec §4.3, §5): its pending delay,
// yield, or activation event is cancelled and any other resume event already
// scheduled for it is ignored when it fires, resources/queue/signal
// memberships are released via
// the process's owning entity, the entity and process states are marked
// terminal, and if the process was suspended its goroutine is unwound via a
// recovered panic. Terminating an already-terminal process is a no-op
// (idempotent, since after_replication and cascading terminations may both
// reach the same process).
func (m *Model) Terminate(p *Process) error {
	switch p.state {
	case ProcessTerminated, ProcessCompleted:
		return nil
	case ProcessCreated:
		p.state = ProcessTerminated
		return nil
	case ProcessSuspended:
		if p.resumeEvent != nil {
			p.resumeEvent.Cancel()
		}
		delete(m.suspended, p.handle)
		m.releaseEntityMemberships(p.entity)
		m.resumeProcessGoroutine(p, true)
		if e, ok := m.entities[p.entity]; ok {
			e.state = EntityProcessEnded
		}
		m.notifyProcessWaiters(p)
		m.cascadeTerminate(p)
		return nil
	case ProcessRunning:
		// A process terminating another running process can only happen if
		// that process is itself the caller (self-termination): panic here
		// unwinds the caller's own goroutine, recovered by runBody.
		p.state = ProcessTerminated
		m.releaseEntityMemberships(p.entity)
		if e, ok := m.entities[p.entity]; ok {
			e.state = EntityProcessEnded
		}
		m.notifyProcessWaiters(p)
		m.cascadeTerminate(p)
		panic(processTerminatedSignal{})
	default:
		return illegalState("Process", p.name, p.state.String(), ProcessTerminated.String(), "Terminate from unknown state")
	}
}

// cascadeTerminate implements termination steps 4 and 5 (spec §4.3): a
// process linked via WaitForProcess takes its caller/callee down with it,
// so neither side is left suspended on a partner that will never resume.
func (m *Model) cascadeTerminate(p *Process) {
	if caller := p.callingProcess; caller != nil {
		p.callingProcess = nil
		if caller.state == ProcessSuspended || caller.state == ProcessRunning {
			_ = m.Terminate(caller)
		}
	}
	if called := p.calledProcess; called != nil {
		p.calledProcess = nil
		if called.state == ProcessSuspended || called.state == ProcessRunning {
			_ = m.Terminate(called)
		}
	}
}
