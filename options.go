package desim

import "github.com/joeycumines/logiface"

// modelOptions holds configuration resolved from Option values, following
// the functional-options pattern of a config struct plus an Option closure.
type modelOptions struct {
	logger            *logiface.Logger[LogEvent]
	stats             StatsSink
	tracer            Tracer
	priorities        PriorityTable
	replicationLength float64
	startTime         float64
}

// Option configures a Model instance, constructed via New.
type Option interface {
	applyModel(*modelOptions)
}

type optionFunc func(*modelOptions)

func (f optionFunc) applyModel(o *modelOptions) { f(o) }

// WithLogger installs a structured logger (SPEC_FULL §10.1). A nil logger
// disables logging: the kernel checks for it and skips every log call.
func WithLogger(l *logiface.Logger[LogEvent]) Option {
	return optionFunc(func(o *modelOptions) { o.logger = l })
}

// WithStatsSink installs the statistics collaborator (spec §6). Passing nil
// disables statistics publication without the core needing to special-case
// every call site.
func WithStatsSink(s StatsSink) Option {
	return optionFunc(func(o *modelOptions) {
		if s == nil {
			s = nopStatsSink{}
		}
		o.stats = s
	})
}

// WithTracer installs a span tracer (SPEC_FULL §11.1).
func WithTracer(t Tracer) Option {
	return optionFunc(func(o *modelOptions) {
		if t == nil {
			t = nopTracer{}
		}
		o.tracer = t
	})
}

// WithPriorityTable overrides the default priority constants (spec §6).
func WithPriorityTable(t PriorityTable) Option {
	return optionFunc(func(o *modelOptions) { o.priorities = t })
}

// WithReplicationLength sets the stop condition "replication-length
// reached" (spec §4.2). Zero or negative means unbounded (the other stop
// conditions — no events, external halt — still apply).
func WithReplicationLength(length float64) Option {
	return optionFunc(func(o *modelOptions) { o.replicationLength = length })
}

// WithStartTime sets the virtual clock's initial value, for deterministic
// test fixtures. Defaults to 0.
func WithStartTime(t float64) Option {
	return optionFunc(func(o *modelOptions) { o.startTime = t })
}

func resolveOptions(opts []Option) *modelOptions {
	cfg := &modelOptions{
		stats:      nopStatsSink{},
		tracer:     nopTracer{},
		priorities: DefaultPriorityTable(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyModel(cfg)
	}
	return cfg
}
