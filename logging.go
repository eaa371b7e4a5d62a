package desim

import (
	"github.com/joeycumines/logiface"

	"github.com/joeycumines/go-desim/internal/simlog"
)

// LogEvent is the concrete logiface.Event implementation the kernel logs
// through (SPEC_FULL §10.1). Build a logger with simlog.New and pass it to
// New via WithLogger.
type LogEvent = *simlog.Event

func (m *Model) logDebug() *logiface.Builder[LogEvent] {
	if m.logger == nil {
		return nil
	}
	return m.logger.Debug()
}

func (m *Model) logInfo() *logiface.Builder[LogEvent] {
	if m.logger == nil {
		return nil
	}
	return m.logger.Info()
}

func (m *Model) logError() *logiface.Builder[LogEvent] {
	if m.logger == nil {
		return nil
	}
	return m.logger.Err()
}

// logEventFire logs an event firing at the current tick (debug level).
func (m *Model) logEventFire(e *Event) {
	if b := m.logDebug(); b != nil {
		b.Float64("time", e.Time).
			Int("priority", int(e.Priority)).
			Str("name", e.Name).
			Log("event fire")
	}
}

// logSuspend logs a process suspension (debug level).
func (m *Model) logSuspend(p *Process, primitive string) {
	if b := m.logDebug(); b != nil {
		b.Str("process", p.name).
			Str("primitive", primitive).
			Str("suspension_name", p.suspensionName).
			Float64("time", m.now).
			Log("process suspend")
	}
}

// logResume logs a process resumption (debug level).
func (m *Model) logResume(p *Process) {
	if b := m.logDebug(); b != nil {
		b.Str("process", p.name).
			Float64("time", m.now).
			Log("process resume")
	}
}

// logAllocate logs a resource allocation (info level).
func (m *Model) logAllocate(r *Resource, entity EntityHandle, amount int) {
	if b := m.logInfo(); b != nil {
		b.Str("resource", r.name).
			Uint64("entity", uint64(entity)).
			Int("amount", amount).
			Float64("time", m.now).
			Log("resource allocate")
	}
}

// logDeallocate logs a resource deallocation (info level).
func (m *Model) logDeallocate(r *Resource, entity EntityHandle, amount int) {
	if b := m.logInfo(); b != nil {
		b.Str("resource", r.name).
			Uint64("entity", uint64(entity)).
			Int("amount", amount).
			Float64("time", m.now).
			Log("resource deallocate")
	}
}

// logStateViolation logs a state-machine violation just before the error is
// returned to the caller (error level) — the core still returns the error,
// it does not swallow it, per spec §7.
func (m *Model) logStateViolation(err error) {
	if b := m.logError(); b != nil {
		b.Err(err).Float64("time", m.now).Log("state machine violation")
	}
}
