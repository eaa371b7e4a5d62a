// Package otelstats provides an OpenTelemetry-backed implementation of
// desim.StatsSink and desim.Tracer, so a replication's statistics and
// timeline can flow into whatever backend the surrounding service already
// exports to. It is the concrete "external statistics collaborator" the
// core package only ever talks to through an interface (desim.StatsSink),
// grounded on the same meter/tracer-provider wiring used elsewhere in the
// dependency pack for observability.
package otelstats

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joeycumines/go-desim"
)

// Sink publishes desim's time-weighted and tally observations as OTel
// instruments: time-weighted series become Float64ObservableGauge values
// (the last observed value is reported on each collection, with the virtual
// time it was observed at as a "sim.time" attribute), tally series
// become Float64Histogram recordings.
type Sink struct {
	meter metric.Meter

	mu      sync.Mutex
	gauges  map[string]*gaugeState
	tallies map[string]metric.Float64Histogram
}

type gaugeState struct {
	value float64
	at    float64
	obs   metric.Float64ObservableGauge
}

// NewSink builds a Sink registered against meter.
func NewSink(meter metric.Meter) *Sink {
	return &Sink{
		meter:   meter,
		gauges:  make(map[string]*gaugeState),
		tallies: make(map[string]metric.Float64Histogram),
	}
}

var _ desim.StatsSink = (*Sink)(nil)

// TimeWeightedObserve implements desim.StatsSink.
func (s *Sink) TimeWeightedObserve(name string, value float64, at float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.gauges[name]
	if !ok {
		g = &gaugeState{}
		obs, err := s.meter.Float64ObservableGauge(
			name,
			metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
				s.mu.Lock()
				v, at := g.value, g.at
				s.mu.Unlock()
				o.Observe(v, metric.WithAttributes(attribute.Float64("sim.time", at)))
				return nil
			}),
		)
		if err == nil {
			g.obs = obs
		}
		s.gauges[name] = g
	}
	g.value = value
	g.at = at
}

// TallyObserve implements desim.StatsSink.
func (s *Sink) TallyObserve(name string, value float64) {
	s.mu.Lock()
	h, ok := s.tallies[name]
	if !ok {
		var err error
		h, err = s.meter.Float64Histogram(name)
		if err != nil {
			s.mu.Unlock()
			return
		}
		s.tallies[name] = h
	}
	s.mu.Unlock()
	h.Record(context.Background(), value)
}

// Tracer wraps an OTel trace.Tracer as a desim.Tracer, turning each event
// fire or process suspension into a span. Spans carry the replication's
// virtual time as an attribute rather than wall-clock time, since the two
// are unrelated in a deterministic simulation.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer wraps t.
func NewTracer(t trace.Tracer) *Tracer { return &Tracer{tracer: t} }

var _ desim.Tracer = (*Tracer)(nil)

// StartSpan implements desim.Tracer.
func (t *Tracer) StartSpan(name string, at float64, attrs map[string]string) func() {
	kv := make([]attribute.KeyValue, 0, len(attrs)+1)
	kv = append(kv, attribute.Float64("sim.time", at))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	_, span := t.tracer.Start(context.Background(), name, trace.WithAttributes(kv...))
	return span.End
}
