package desim

import (
	"github.com/google/uuid"
	"github.com/joeycumines/logiface"
)

// Model is the C8 process model: the container that owns every entity,
// process, resource, pool, and queue created against one simulation
// instance, and drives replication start/end. It also embeds the C1/C2
// clock, event queue, and executive loop — these are kept in one type
// because the source's clock/executive/process/resource logic is tightly
// interleaved (spec §2), and splitting them into separate packages would
// just reintroduce the same coupling through import cycles (handles are
// used instead, per the design note in spec §9, wherever a reference could
// outlive its owner's lifetime).
type Model struct {
	id uuid.UUID

	events *eventQueue
	now    float64

	logger *logiface.Logger[LogEvent]
	stats  StatsSink
	tracer Tracer
	prio   PriorityTable

	replicationLength float64
	haltRequested     bool

	entities  map[EntityHandle]*Entity
	nextEntID EntityHandle

	processes  map[ProcessHandle]*Process
	nextProcID ProcessHandle

	resources map[ResourceHandle]*Resource
	nextResID ResourceHandle

	pools      map[PoolHandle]*ResourcePool
	nextPoolID PoolHandle

	// suspended tracks every process currently in ProcessSuspended, so
	// after_replication can terminate all of them (spec §4.2, §5 "every
	// process still in Suspended is terminated"). Termination is tolerated
	// as idempotent because cascading termination may remove entries while
	// iterating (spec §5).
	suspended map[ProcessHandle]struct{}

	// waitersByTarget supports WaitForProcess/BlockUntilAllCompleted: keyed
	// by the process being waited on.
	waitersByTarget map[ProcessHandle][]*waitGroup

	generators []*Generator

	running bool

	// activeProcessGoroutine is set while a process goroutine is the one
	// with control (i.e. between sending it a resume token and receiving
	// its yield signal), so Run can detect reentrant calls (spec:
	// ErrReentrantRun).
	activeProcessGoroutine bool

	afterReplicationHook func()
	replicationEndedHook func()
	initializeHook       func()
	warmUpHook           func()

	// firstProcessError remembers the first error any process body (or a
	// completion-time assertion, e.g. the active-blockages check) raised, so
	// Run can surface it as the replication's own failure (spec §7: "any
	// non-ProcessTerminated failure raised out of a coroutine is re-raised
	// up the event loop").
	firstProcessError error
}

// New constructs a Model ready to run a single replication.
func New(opts ...Option) *Model {
	cfg := resolveOptions(opts)
	m := &Model{
		id:                uuid.New(),
		events:            newEventQueue(),
		now:               cfg.startTime,
		logger:            cfg.logger,
		stats:             cfg.stats,
		tracer:            cfg.tracer,
		prio:              cfg.priorities,
		replicationLength: cfg.replicationLength,
		entities:          make(map[EntityHandle]*Entity),
		processes:         make(map[ProcessHandle]*Process),
		resources:         make(map[ResourceHandle]*Resource),
		pools:             make(map[PoolHandle]*ResourcePool),
		suspended:         make(map[ProcessHandle]struct{}),
		waitersByTarget:   make(map[ProcessHandle][]*waitGroup),
	}
	return m
}

// ID returns the Model's run identifier (SPEC_FULL §11.2). The kernel does
// not attach it to its own log lines or spans.
func (m *Model) ID() uuid.UUID { return m.id }

// Now returns the current virtual clock value (spec §4.1: now()).
func (m *Model) Now() float64 { return m.now }

// Schedule inserts a new event at now+delay with the given priority (spec
// §4.1). delay must be finite and non-negative.
func (m *Model) Schedule(delay float64, priority Priority, name string, action Action) (*Event, error) {
	if !(delay >= 0) { // also rejects NaN
		return nil, invalidArgument("Schedule", "delay", delay)
	}
	if isInf(delay) {
		return nil, invalidArgument("Schedule", "delay", delay)
	}
	return m.events.schedule(m.now+delay, priority, name, action, nil), nil
}

// Cancel flags an event so it is skipped on fire (spec §4.1).
func (m *Model) Cancel(e *Event) { e.Cancel() }

func isInf(f float64) bool { return f > maxFinite || f < -maxFinite }

const maxFinite = 1.7976931348623157e+308

// SetAfterReplicationHook installs the callback the executive invokes as the
// final lifecycle stage, after the core's own mandatory cleanup has
// terminated every still-suspended process (spec §4.2, §6:
// after_replication; the core's own cleanup, §4.3/§5, always runs regardless
// of this hook). Distinct from SetReplicationEndedHook, which runs before
// that cleanup.
func (m *Model) SetAfterReplicationHook(fn func()) { m.afterReplicationHook = fn }

// SetReplicationEndedHook installs the callback for the model lifecycle's
// replication_ended() stage (spec §6): invoked as soon as the executive loop
// stops, before the core's own mandatory suspended-process cleanup.
func (m *Model) SetReplicationEndedHook(fn func()) { m.replicationEndedHook = fn }

// SetInitializeHook installs the callback for the model lifecycle's
// initialize() stage (spec §6, §4.5), run after InitializeReplication's own
// per-resource reset.
func (m *Model) SetInitializeHook(fn func()) { m.initializeHook = fn }

// SetWarmUpHook installs the callback for the model lifecycle's warm_up()
// stage (spec §6, §4.5), run after WarmUp's own per-resource
// accumulator reset.
func (m *Model) SetWarmUpHook(fn func()) { m.warmUpHook = fn }

// InitializeReplication implements the model lifecycle's initialize() stage
// (spec §4.5): every resource is reset to (state=Idle, num_busy=0,
// counters=0), independent of whatever allocations or end-state a prior
// replication left it in (spec §8: "initialize() returns a resource to
// (state=Idle, num_busy=0, counters=0) regardless of prior replication's end
// state"). Call this before Run, once per replication.
func (m *Model) InitializeReplication() {
	for _, r := range m.resources {
		r.allocated = make(map[*Allocation]struct{})
		r.busy = 0
		r.numTimesSeized = 0
		r.numTimesReleased = 0
		r.manualInactive = false
		r.recomputeState()
		m.stats.TimeWeightedObserve(r.name+".num_busy", 0, m.now)
	}
	if m.initializeHook != nil {
		m.initializeHook()
	}
}

// WarmUp implements the model lifecycle's warm_up() stage (spec §4.5): every
// resource re-enters its current state at the current instant by
// re-observing num_busy, so accumulators reset at construction (or by a
// stats sink that discards pre-warm-up history on the next observation)
// start their steady-state window cleanly from here. Call this from within a
// scheduled event at the intended warm-up instant.
func (m *Model) WarmUp() {
	for _, r := range m.resources {
		m.stats.TimeWeightedObserve(r.name+".num_busy", float64(r.busy), m.now)
	}
	if m.warmUpHook != nil {
		m.warmUpHook()
	}
}

// recordProcessError remembers the first error any process body (or its
// completion-time assertions) raised, so Run can surface it as the
// replication's own failure (spec §7: "any non-ProcessTerminated failure
// raised out of a coroutine is re-raised up the event loop").
func (m *Model) recordProcessError(err error) {
	if m.firstProcessError == nil {
		m.firstProcessError = err
	}
	m.logStateViolation(err)
}

// Run drives the executive loop (spec §4.2): while the event queue is
// non-empty and the stop condition isn't met, pop the minimum event,
// advance now to its time, and if not cancelled invoke its action. Stop
// conditions: replication-length reached, no events, or external Halt.
func (m *Model) Run() error {
	if m.activeProcessGoroutine {
		return ErrReentrantRun
	}
	if m.running {
		return ErrExecutiveAlreadyRunning
	}
	m.running = true
	defer func() { m.running = false }()
	if b := m.logInfo(); b != nil {
		b.Float64("time", m.now).Log("replication started")
	}

	for {
		if m.haltRequested {
			break
		}
		t, ok := m.events.peekTime()
		if !ok {
			break
		}
		if m.replicationLength > 0 && t >= m.replicationLength {
			break
		}
		e := m.events.pop()
		if e == nil {
			break
		}
		m.now = e.Time
		if e.Cancelled() {
			continue
		}
		m.logEventFire(e)
		var end func()
		if m.tracer != nil {
			end = m.tracer.StartSpan(e.Name, e.Time, map[string]string{
				"priority": itoa(int(e.Priority)),
				"seq":      itoa(int(e.Seq)),
			})
		}
		e.Action()
		if end != nil {
			end()
		}
	}

	if err := m.afterReplication(); err != nil {
		return err
	}
	return m.firstProcessError
}

// Halt requests the executive loop stop after the in-flight action
// completes (spec §4.2: "external halt").
func (m *Model) Halt() { m.haltRequested = true }

// afterReplication drives the model lifecycle's final two stages in order
// (spec §6): replication_ended() fires as soon as the loop stops, then the
// core's own mandatory cleanup terminates every still-suspended process
// (spec §4.2, §5) so no captured continuation leaks, and only then does
// after_replication() — the final, post-cleanup hook — run. Termination is
// idempotent: cascading termination may remove entries from the suspended
// set while iterating, so we snapshot handles first.
func (m *Model) afterReplication() error {
	if m.replicationEndedHook != nil {
		m.replicationEndedHook()
	}

	handles := make([]ProcessHandle, 0, len(m.suspended))
	for h := range m.suspended {
		handles = append(handles, h)
	}
	for _, h := range handles {
		p, ok := m.processes[h]
		if !ok {
			continue // already cleaned up by a cascade
		}
		if p.state != ProcessSuspended {
			continue
		}
		if err := m.Terminate(p); err != nil {
			return err
		}
	}

	if m.afterReplicationHook != nil {
		m.afterReplicationHook()
	}

	if b := m.logInfo(); b != nil {
		b.Float64("time", m.now).Log("replication ended")
	}
	return nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
