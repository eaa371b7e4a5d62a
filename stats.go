package desim

// StatsSink is the external statistics collaborator the core calls into
// for every time-weighted and tally observation it produces (spec §6):
// num_busy per resource, num-in-queue and time-in-queue per queue, and the
// buffered length of each blocking queue. It publishes no resource
// utilization series and no per-state time-in-state intervals. The core
// never aggregates these itself.
//
// A nil StatsSink is valid and makes every call into it a no-op; see
// Option WithStatsSink. The otelstats subpackage provides a concrete
// OpenTelemetry-backed implementation (SPEC_FULL §11.1).
type StatsSink interface {
	// TimeWeightedObserve records a value-at-time sample for a
	// time-weighted series (e.g. "server.num_busy").
	TimeWeightedObserve(name string, value float64, at float64)
	// TallyObserve records a discrete observation for a tally series
	// (e.g. "server.request_queue.time_in_queue").
	TallyObserve(name string, value float64)
}

type nopStatsSink struct{}

func (nopStatsSink) TimeWeightedObserve(string, float64, float64) {}
func (nopStatsSink) TallyObserve(string, float64)                 {}

// Tracer receives spans bracketing event fires and process suspensions, for
// building a simulated-time timeline (SPEC_FULL §11.1). A nil Tracer is
// valid; Option WithTracer installs one.
type Tracer interface {
	// StartSpan begins a span named name at virtual time at, returning an
	// end function to be called when the span completes.
	StartSpan(name string, at float64, attrs map[string]string) (end func())
}

type nopTracer struct{}

func (nopTracer) StartSpan(string, float64, map[string]string) func() { return func() {} }
