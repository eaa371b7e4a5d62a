package desim

// Request is one entity's pending ask for amount units of a Resource (spec
// §3). It is queued in the resource's RequestQ until enough capacity is
// free, then converted into an Allocation.
type Request struct {
	resource *Resource
	entity   EntityHandle
	process  *Process
	amount   int
	queuedAt float64

	allocation *Allocation

	// poolPlan is the per-member split process_pool_queue committed to for
	// this request; poolAllocation is filled in by the resumed
	// SeizeFromPool call once it actually performs the grant (spec §4.6).
	poolPlan       []ResourceAmount
	poolAllocation *PoolAllocation
}

// Allocation is a granted hold on amount units of a Resource, returned to
// the caller of Seize and later passed back to Release (spec §3).
type Allocation struct {
	resource   *Resource
	entity     EntityHandle
	amount     int
	acquiredAt float64
}

// Resource returns the resource this allocation was granted against.
func (a *Allocation) Resource() *Resource { return a.resource }

// Amount returns the number of units held.
func (a *Allocation) Amount() int { return a.amount }

// allocationMembership releases an Allocation when its owning entity is
// terminated, so Terminate doesn't need resource-specific knowledge (spec
// §4.3: "release all resources ... held by the entity").
type allocationMembership struct {
	model *Model
	alloc *Allocation
}

func (m allocationMembership) release() {
	_ = m.model.Release(m.alloc)
}

// requestMembership cancels a still-queued Request when its owning entity
// is terminated before the request was ever granted.
type requestMembership struct {
	req *Request
}

func (m requestMembership) release() {
	m.req.resource.requestQ.remove(m.req)
}
