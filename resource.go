package desim

// Resource is the C5 capacity-limited server (spec §3, §5): entities Seize
// some amount of it, hold an Allocation, then Release it. A Resource is
// Idle when nothing is held, Busy while any amount is held, and Inactive
// when a model author has deliberately taken it out of service (no new
// allocations are granted while Inactive, but existing ones are unaffected
// until released).
type Resource struct {
	handle    ResourceHandle
	model     *Model
	name      string
	capacity  int
	busy      int
	state     ResourceState
	requestQ  *RequestQ
	allocated map[*Allocation]struct{}

	// manualInactive records a deliberate SetInactive call, which persists
	// regardless of capacity/busy (spec §3), distinct from the automatic
	// capacity==0 && busy==0 -> Inactive rule (spec §4.5) recomputeState also
	// applies.
	manualInactive bool

	// numTimesSeized/numTimesReleased are the spec §3 Resource data-model
	// counters; the testable property in spec §8 is
	// numTimesSeized - numTimesReleased == current number of live allocations.
	numTimesSeized   int
	numTimesReleased int
}

// NewResource creates a resource with the given capacity and a FIFO request
// queue (spec §3 default discipline; pass Ranked via NewResourceWithQueue
// for priority-ordered waiting, SPEC_FULL §12).
func (m *Model) NewResource(name string, capacity int) *Resource {
	return m.NewResourceWithQueue(name, capacity, FIFO)
}

// NewResourceWithQueue creates a resource whose RequestQ uses the given
// discipline.
func (m *Model) NewResourceWithQueue(name string, capacity int, discipline QueueDiscipline) *Resource {
	m.nextResID++
	r := &Resource{
		handle:    m.nextResID,
		model:     m,
		name:      name,
		capacity:  capacity,
		state:     ResourceIdle,
		allocated: make(map[*Allocation]struct{}),
	}
	r.requestQ = newRequestQ(m, name+".request_queue", discipline)
	r.recomputeState()
	m.resources[r.handle] = r
	return r
}

// Handle returns the resource's arena handle.
func (r *Resource) Handle() ResourceHandle { return r.handle }

// Capacity returns the current total capacity.
func (r *Resource) Capacity() int { return r.capacity }

// Busy returns the number of units currently allocated.
func (r *Resource) Busy() int { return r.busy }

// State returns Idle/Busy/Inactive. There is no Failed state (SPEC_FULL
// §13, Open Question: the distilled spec's resource lifecycle stops at
// these three).
func (r *Resource) State() ResourceState { return r.state }

func (r *Resource) canAllocate(amount int) bool {
	return r.state != ResourceInactive && r.capacity-r.busy >= amount
}

// recomputeState derives r.state from its current capacity/busy/manual-flag,
// honoring the invariant documented in state.go: a deliberate SetInactive
// persists regardless of capacity, and otherwise capacity==0 && busy==0
// implies Inactive, else Busy/Idle follows busy (spec §3, §4.5).
func (r *Resource) recomputeState() {
	if r.manualInactive {
		r.state = ResourceInactive
		return
	}
	if r.capacity == 0 && r.busy == 0 {
		r.state = ResourceInactive
		return
	}
	if r.busy > 0 {
		r.state = ResourceBusy
	} else {
		r.state = ResourceIdle
	}
}

// grantAmount is the low-level allocate step shared by a direct Seize grant
// and a pool's per-member share of a PoolAllocation: it updates busy/state,
// publishes stats, and records the allocation, but (unlike grant) does not
// attach an entity membership — callers that want automatic release-on-
// termination do that themselves.
func (r *Resource) grantAmount(entity EntityHandle, amount int) *Allocation {
	r.busy += amount
	r.numTimesSeized++
	r.recomputeState()
	alloc := &Allocation{resource: r, entity: entity, amount: amount, acquiredAt: r.model.now}
	r.allocated[alloc] = struct{}{}
	r.model.stats.TimeWeightedObserve(r.name+".num_busy", float64(r.busy), r.model.now)
	r.model.logAllocate(r, entity, amount)
	return alloc
}

func (r *Resource) grant(req *Request) *Allocation {
	alloc := r.grantAmount(req.entity, req.amount)
	if e, ok := r.model.entities[req.entity]; ok {
		e.addMembership(allocationMembership{model: r.model, alloc: alloc})
	}
	return alloc
}

// Allocations returns every currently-live allocation held by entity against
// r (spec §4.5 derived query allocations(entity)).
func (r *Resource) Allocations(entity EntityHandle) []*Allocation {
	var out []*Allocation
	for alloc := range r.allocated {
		if alloc.entity == entity {
			out = append(out, alloc)
		}
	}
	return out
}

// TotalAmountAllocated sums the amount entity currently holds against r (spec
// §4.5 derived query total_amount_allocated(entity)).
func (r *Resource) TotalAmountAllocated(entity EntityHandle) int {
	total := 0
	for alloc := range r.allocated {
		if alloc.entity == entity {
			total += alloc.amount
		}
	}
	return total
}

// NumAllocations counts entity's currently-live allocations against r (spec
// §4.5 derived query num_allocations(entity)).
func (r *Resource) NumAllocations(entity EntityHandle) int {
	n := 0
	for alloc := range r.allocated {
		if alloc.entity == entity {
			n++
		}
	}
	return n
}

// IsUsing reports whether entity currently holds any allocation against r
// (spec §4.5 derived query is_using(entity)).
func (r *Resource) IsUsing(entity EntityHandle) bool {
	return r.NumAllocations(entity) > 0
}

// NumTimesSeized returns the lifetime count of grants made from r.
func (r *Resource) NumTimesSeized() int { return r.numTimesSeized }

// NumTimesReleased returns the lifetime count of releases made against r.
// numTimesSeized - numTimesReleased is always the current live-allocation
// count (spec §8).
func (r *Resource) NumTimesReleased() int { return r.numTimesReleased }

// Seize asks for amount units of r on behalf of the calling process. If
// capacity is immediately available, it returns synchronously; otherwise the
// process suspends in r's RequestQ until process_waiting_requests grants it
// (spec §3, §5).
func (p *Process) Seize(r *Resource, amount int) (*Allocation, error) {
	return p.SeizeWithPriority(r, amount, r.model.prio.Queue)
}

// SeizeWithPriority is Seize with an explicit queueing priority, for a
// Ranked-discipline RequestQ (SPEC_FULL §12).
func (p *Process) SeizeWithPriority(r *Resource, amount int, priority Priority) (*Allocation, error) {
	if amount <= 0 {
		return nil, invalidArgument("Seize", "amount", amount)
	}
	req := &Request{resource: r, entity: p.entity, process: p, amount: amount, queuedAt: r.model.now}
	if r.canAllocate(amount) {
		return r.grant(req), nil
	}
	r.requestQ.enqueue(req, priority)
	if e, ok := r.model.entities[p.entity]; ok {
		e.addMembership(requestMembership{req: req})
	}
	// process_waiting_requests only ever dequeues and schedules this
	// resumption; the allocation itself happens here, after control returns
	// to this process's own goroutine (spec §4.6: "no allocation happens
	// here — the resumed seize performs it," which is also what makes it
	// meaningful for req.resource to have been reassigned via MoveRequest
	// while this request was still queued).
	if err := p.suspend("Seize"); err != nil {
		return nil, err
	}
	alloc := req.resource.grant(req)
	req.allocation = alloc
	return alloc, nil
}

// MoveRequest reassigns a still-queued Request to a different resource,
// dequeuing it from its current resource's RequestQ and enqueuing it on to's
// (spec §3: "The request's target resource may be reassigned externally ...
// the suspended entity will be allocated from the new target on
// resumption"). It is an illegal-state error if req is not currently queued
// (already granted, or never queued in the first place).
func (m *Model) MoveRequest(req *Request, to *Resource) error {
	from := req.resource
	if from == to {
		return nil
	}
	if !from.requestQ.remove(req) {
		return illegalState("Request", from.name, "queued", "moved", "request is not currently queued on its resource")
	}
	req.resource = to
	to.requestQ.enqueue(req, m.prio.Move)
	return nil
}

// Release returns an allocation's units to its resource and re-processes
// that resource's RequestQ exactly once (spec §5; SPEC_FULL §13 Open
// Question: re-processing only ever considers the originating queue, never
// a request's current queue if it was moved elsewhere — a documented sharp
// edge, not a bug).
func (m *Model) Release(alloc *Allocation) error {
	r := alloc.resource
	if _, ok := r.allocated[alloc]; !ok {
		return nil // idempotent: already released
	}
	delete(r.allocated, alloc)
	r.busy -= alloc.amount
	r.numTimesReleased++
	r.recomputeState()
	m.stats.TimeWeightedObserve(r.name+".num_busy", float64(r.busy), m.now)
	m.logDeallocate(r, alloc.entity, alloc.amount)
	if e, ok := m.entities[alloc.entity]; ok {
		e.removeMembership(allocationMembership{model: m, alloc: alloc})
	}
	r.processWaitingRequests()
	if pool := m.poolOf(r); pool != nil {
		pool.processPoolQueue()
	}
	return nil
}

// SetCapacity changes a resource's total capacity and synchronously
// re-processes its RequestQ exactly once afterward, including when called
// during warm-up or immediately after a reset (SPEC_FULL §13, Open Question
// #1: capacity changes always attempt to drain the queue they might have
// just made room in, regardless of when in the replication lifecycle they
// happen).
func (m *Model) SetCapacity(r *Resource, capacity int) error {
	if capacity < 0 {
		return invalidArgument("SetCapacity", "capacity", capacity)
	}
	r.capacity = capacity
	r.recomputeState()
	r.processWaitingRequests()
	return nil
}

// SetInactive takes a resource out of service: no new allocations are
// granted until SetActive is called, but units already held remain held
// until released (spec §3). The Inactive state persists regardless of
// subsequent capacity changes until SetActive is called.
func (m *Model) SetInactive(r *Resource) {
	r.manualInactive = true
	r.recomputeState()
}

// SetActive returns a resource to service and re-processes its RequestQ
// once. If capacity is still 0, the resource settles back into Inactive via
// the automatic rule rather than Idle (spec §4.5).
func (m *Model) SetActive(r *Resource) {
	r.manualInactive = false
	r.recomputeState()
	r.processWaitingRequests()
}
