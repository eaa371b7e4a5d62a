package desim

// Generator periodically creates new entities and activates their processes
// (spec §4.3), the usual way a model introduces arrivals over time. It is a
// thin convenience wrapper: nothing about the core's executive treats
// generator-created entities any differently from ones created directly via
// NewEntity.
type Generator struct {
	name  string
	model *Model
}

// NewGenerator registers a generator that, starting at start and repeating
// every interval virtual-time units (interval <= 0 means "once, at start"),
// creates a new entity via makeBody and activates its process. count <= 0
// means unbounded (subject to the replication's own stop conditions).
func (m *Model) NewGenerator(name string, start, interval float64, count int, makeBody func(n int) func(p *Process) error) (*Generator, error) {
	g := &Generator{name: name, model: m}
	m.generators = append(m.generators, g)

	var spawn func(n int)
	spawn = func(n int) {
		if count > 0 && n >= count {
			return
		}
		_, proc := m.NewEntity(name, makeBody(n))
		if err := m.Activate(proc, 0); err != nil {
			m.recordProcessError(err)
			return
		}
		if interval > 0 {
			_, _ = m.Schedule(interval, m.prio.Resume, name+"_generate", func() {
				spawn(n + 1)
			})
		}
	}

	_, err := m.Schedule(start, m.prio.Resume, name+"_generate", func() {
		spawn(0)
	})
	return g, err
}
