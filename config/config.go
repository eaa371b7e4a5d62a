// Package config loads and hot-reloads engine-level configuration for a
// desim.Model: replication length, log level, and priority overrides. It is
// deliberately scoped to the engine, not model authoring — there is no
// config-driven way to describe entities, processes, or resources; those
// stay Go code (spec Non-goals: no declarative scenario DSL, no CLI).
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/joeycumines/logiface"

	"github.com/joeycumines/go-desim"
)

// Engine holds the subset of a Model's configuration worth externalizing:
// how long a replication runs, how verbose its logger is, and any priority
// overrides (spec §6: priority table is caller-configurable).
type Engine struct {
	ReplicationLength float64        `yaml:"replication_length"`
	LogLevel          string         `yaml:"log_level"`
	Priorities        map[string]int `yaml:"priorities,omitempty"`
}

// Load reads and parses an Engine config from path.
func Load(path string) (*Engine, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var e Engine
	if err := yaml.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &e, nil
}

// LogLevelValue maps the config's textual log level to a logiface.Level,
// defaulting to Info for an empty or unrecognized value.
func (e *Engine) LogLevelValue() logiface.Level {
	switch e.LogLevel {
	case "debug":
		return logiface.LevelDebug
	case "error":
		return logiface.LevelError
	case "info", "":
		return logiface.LevelInformational
	default:
		return logiface.LevelInformational
	}
}

// PriorityTable builds a desim.PriorityTable starting from the defaults and
// applying any overrides named in e.Priorities. Unknown keys are ignored —
// a config typo should not be fatal to starting a replication.
func (e *Engine) PriorityTable() desim.PriorityTable {
	t := desim.DefaultPriorityTable()
	for name, v := range e.Priorities {
		p := desim.Priority(v)
		switch name {
		case "resume":
			t.Resume = p
		case "release":
			t.Release = p
		case "seize":
			t.Seize = p
		case "delay":
			t.Delay = p
		case "move":
			t.Move = p
		case "yield":
			t.Yield = p
		case "blockage":
			t.Blockage = p
		case "conveyor_request":
			t.ConveyorRequest = p
		case "conveyor_exit":
			t.ConveyorExit = p
		case "transport_request":
			t.TransportRequest = p
		case "wait_for":
			t.WaitFor = p
		case "queue":
			t.Queue = p
		}
	}
	return t
}

// Options converts the loaded config into desim.Option values ready to pass
// to desim.New.
func (e *Engine) Options() []desim.Option {
	return []desim.Option{
		desim.WithReplicationLength(e.ReplicationLength),
		desim.WithPriorityTable(e.PriorityTable()),
	}
}

// Watch watches path for changes and invokes onChange with a freshly parsed
// Engine each time the file is written. The returned io.Closer stops the
// watch.
func Watch(path string, onChange func(*Engine)) (io.Closer, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: starting watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("config: watching %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				e, err := Load(path)
				if err != nil {
					continue
				}
				onChange(e)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}
