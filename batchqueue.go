package desim

// BatchQueue groups processes until size of them have joined, then releases
// all of them together (spec §4.3: WaitForBatch). The member whose Join
// call completes the batch is not special-cased — it suspends and is
// resumed via the same scheduled event as its peers, so batch completion
// always takes effect on the next executive tick rather than inside the
// triggering call's own stack.
type BatchQueue struct {
	name    string
	model   *Model
	size    int
	waiting []*batchMember
}

type batchMember struct {
	proc *Process
}

// NewBatchQueue creates a batch queue that releases its members once size
// processes have joined.
func (m *Model) NewBatchQueue(name string, size int) *BatchQueue {
	return &BatchQueue{name: name, model: m, size: size}
}

// Len returns the number of processes currently waiting to fill the batch.
func (bq *BatchQueue) Len() int { return len(bq.waiting) }

type batchMembership struct {
	bq *BatchQueue
	m  *batchMember
}

func (m batchMembership) release() {
	for i, x := range m.bq.waiting {
		if x == m.m {
			m.bq.waiting = append(m.bq.waiting[:i], m.bq.waiting[i+1:]...)
			return
		}
	}
}

// JoinBatch suspends the calling process until size processes (inclusive of
// this one) have called JoinBatch on bq, at which point every one of them
// resumes (spec §4.3).
func (p *Process) JoinBatch(bq *BatchQueue) error {
	mem := &batchMember{proc: p}
	bq.waiting = append(bq.waiting, mem)
	if e, ok := p.model.entities[p.entity]; ok {
		e.addMembership(batchMembership{bq: bq, m: mem})
	}

	if len(bq.waiting) >= bq.size {
		members := bq.waiting
		bq.waiting = nil
		for _, m := range members {
			proc := m.proc
			_, _ = bq.model.Schedule(0, bq.model.prio.Queue, "batch_release", func() {
				bq.model.resumeProcessGoroutine(proc, false)
			})
		}
	}

	return p.suspend("WaitForBatch")
}
