package desim

// RequestQ holds Requests waiting for capacity on one Resource (spec §5).
// process_waiting_requests walks the queue head-first and stops at the
// first request it cannot satisfy — a request further back that happens to
// fit is left waiting rather than jumping the line (spec §5's documented
// policy, restated as an Open Question decision in SPEC_FULL §13: no
// look-ahead / no reordering on partial capacity).
type RequestQ struct {
	q *Queue[*Request]
}

func newRequestQ(m *Model, name string, discipline QueueDiscipline) *RequestQ {
	return &RequestQ{q: newQueue[*Request](m, name, discipline)}
}

// Len returns the number of requests currently waiting.
func (rq *RequestQ) Len() int { return rq.q.Len() }

func (rq *RequestQ) enqueue(req *Request, priority Priority) {
	rq.q.Enqueue(req, priority)
}

func (rq *RequestQ) remove(req *Request) bool {
	return rq.q.Remove(func(r *Request) bool { return r == req })
}

// processWaitingRequests walks the queue head-first, deciding which requests
// currently fit and stopping at the first that doesn't (spec §5). It only
// dequeues and schedules each grantee's resumption — the allocation itself
// happens later, inside the resumed Seize call, from that process's own
// context (spec §4.6). Since the real busy count won't reflect those grants
// until then, a local reservation tally stands in for it so multiple
// requests dequeued within the same pass don't overcommit capacity.
func (r *Resource) processWaitingRequests() {
	reserved := 0
	for {
		req, ok := r.requestQ.q.Peek()
		if !ok {
			return
		}
		if r.state == ResourceInactive || r.capacity-r.busy-reserved < req.amount {
			return
		}
		_, _ = r.requestQ.q.Dequeue()
		reserved += req.amount
		proc := req.process
		_, _ = r.model.Schedule(0, r.model.prio.Seize, "seize_granted", func() {
			r.model.resumeProcessGoroutine(proc, false)
		})
	}
}
