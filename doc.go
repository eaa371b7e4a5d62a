// Package desim implements a process-view discrete-event simulation kernel:
// a cooperative single-threaded scheduler of time-stamped events driving a
// virtual clock, a process coroutine runtime that turns linear procedural
// code for an entity into a resumable state machine, and a resource/queue
// model (single resources, pools, signals, hold queues, blocking rendezvous
// queues) that is the primary reason processes suspend.
//
// # Architecture
//
// A [Model] owns the event queue, the virtual clock, and every entity,
// process, resource, and queue created against it. A generator creates an
// [Entity] and activates its first [Process] through [Model.Activate]. The
// process body runs on its own goroutine but is single-stepped by the
// Model's executive loop: every suspension primitive on [Process] (Delay,
// Seize, Hold, WaitForSignal, ...) hands control back to the executive and
// parks the goroutine until a later event resumes it. At most one process
// goroutine is ever unblocked at a time, so no locks guard shared state.
//
// # Determinism
//
// Events scheduled for the same virtual time fire in (priority, insertion
// sequence) order. The priority constants ([PriorityResume] through
// [PriorityQueue]) are chosen so that, without caller overrides, a release's
// queue reprocessing happens before a same-instant seize's admission check.
//
// # Statistics and tracing
//
// The kernel never computes its own statistics; it calls into a
// [StatsSink] for time-weighted and tally observations, and into a [Tracer]
// for per-event and per-suspension spans. Both are optional — see the
// otelstats subpackage for a concrete OpenTelemetry-backed implementation.
package desim
