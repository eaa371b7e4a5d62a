package desim

// capacityFunc reports currently-available (free) capacity for r. Selection
// and allocation rules read capacity exclusively through this indirection so
// process_pool_queue can layer a reservation overlay on top of a resource's
// real busy count, letting several queued requests be provisionally matched
// within a single pass without mutating shared state (spec §4.6: the actual
// allocate still only ever happens from the resumed process's own context).
type capacityFunc func(r *Resource) int

// liveCapacity is the capacityFunc a live Seize/SeizeFromPool call uses: r's
// real free capacity, with no overlay.
func liveCapacity(r *Resource) int {
	if r.state == ResourceInactive {
		return 0
	}
	return r.capacity - r.busy
}

// SelectionRule picks the subset of a pool's members that can jointly
// satisfy amount (spec §4.3's seize(Pool, amount, rule, alloc_rule, …)
// primitive; §4.7: "Selection rule: decides which subset of members can
// satisfy an amount"). Returning nil means no eligible subset exists right
// now. The default, FirstAvailable, mirrors the distilled spec's single-
// member behavior; LeastBusy and SpanningSubset are SUPPLEMENTED
// alternatives pulled in from the broader source-language surface
// (SPEC_FULL §12 style addition).
type SelectionRule func(members []*Resource, amount int, avail capacityFunc) []*Resource

// FirstAvailable picks the first single member with enough free capacity to
// satisfy amount alone, in member-registration order.
func FirstAvailable(members []*Resource, amount int, avail capacityFunc) []*Resource {
	for _, r := range members {
		if avail(r) >= amount {
			return []*Resource{r}
		}
	}
	return nil
}

// LeastBusy picks the single eligible member with the most free capacity.
func LeastBusy(members []*Resource, amount int, avail capacityFunc) []*Resource {
	var best *Resource
	bestFree := -1
	for _, r := range members {
		free := avail(r)
		if free < amount {
			continue
		}
		if free > bestFree {
			best = r
			bestFree = free
		}
	}
	if best == nil {
		return nil
	}
	return []*Resource{best}
}

// SpanningSubset greedily collects members, in registration order, until
// their combined free capacity covers amount — letting a single allocation
// span more than one member when no single one suffices alone (spec §4.7).
func SpanningSubset(members []*Resource, amount int, avail capacityFunc) []*Resource {
	var subset []*Resource
	total := 0
	for _, r := range members {
		free := avail(r)
		if free <= 0 {
			continue
		}
		subset = append(subset, r)
		total += free
		if total >= amount {
			return subset
		}
	}
	return nil
}

// ResourceAmount pairs a pool member with the amount AllocationRule decided
// to grant it (spec §4.7).
type ResourceAmount struct {
	Resource *Resource
	Amount   int
}

// AllocationRule decides how to split amount across the subset SelectionRule
// chose (spec §4.7: "Allocation rule: decides how to split amount across the
// selected subset"). Returning nil means the subset cannot actually cover
// amount after all.
type AllocationRule func(subset []*Resource, amount int, avail capacityFunc) []ResourceAmount

// GreedyFill is the default AllocationRule: it fills each selected member's
// free capacity, in subset order, before moving to the next.
func GreedyFill(subset []*Resource, amount int, avail capacityFunc) []ResourceAmount {
	var plan []ResourceAmount
	remaining := amount
	for _, r := range subset {
		if remaining <= 0 {
			break
		}
		free := avail(r)
		if free <= 0 {
			continue
		}
		take := free
		if take > remaining {
			take = remaining
		}
		plan = append(plan, ResourceAmount{Resource: r, Amount: take})
		remaining -= take
	}
	if remaining > 0 {
		return nil
	}
	return plan
}

// PoolAllocation is a hold on amount units of a ResourcePool, decomposed by
// an AllocationRule into one Allocation per member resource it was drawn
// from (spec §3, §4.3, §4.7). Release it as a unit via Model.ReleasePool.
type PoolAllocation struct {
	pool  *ResourcePool
	parts []*Allocation
}

// Pool returns the ResourcePool this allocation was drawn from.
func (pa *PoolAllocation) Pool() *ResourcePool { return pa.pool }

// Allocations returns the per-member Allocations making up this grant.
func (pa *PoolAllocation) Allocations() []*Allocation {
	out := make([]*Allocation, len(pa.parts))
	copy(out, pa.parts)
	return out
}

// Amount returns the total amount held across every member.
func (pa *PoolAllocation) Amount() int {
	total := 0
	for _, a := range pa.parts {
		total += a.amount
	}
	return total
}

// ResourcePool is the C7 group of interchangeable resources (spec §3): Seize
// decomposes an amount across a subset of members chosen by SelectionRule
// and split by AllocationRule; if no subset is currently eligible, the
// request queues against the pool itself and is retried whenever any member
// frees capacity.
type ResourcePool struct {
	handle     PoolHandle
	model      *Model
	name       string
	members    []*Resource
	selectRule SelectionRule
	allocRule  AllocationRule
	requestQ   *RequestQ
}

// NewResourcePool creates a pool over the given member resources. selectRule
// defaults to FirstAvailable, allocRule to GreedyFill, when passed nil.
func (m *Model) NewResourcePool(name string, members []*Resource, selectRule SelectionRule, allocRule AllocationRule) *ResourcePool {
	if selectRule == nil {
		selectRule = FirstAvailable
	}
	if allocRule == nil {
		allocRule = GreedyFill
	}
	m.nextPoolID++
	pool := &ResourcePool{
		handle:     m.nextPoolID,
		model:      m,
		name:       name,
		members:    members,
		selectRule: selectRule,
		allocRule:  allocRule,
		requestQ:   newRequestQ(m, name+".pool_request_queue", FIFO),
	}
	m.pools[pool.handle] = pool
	return pool
}

// Handle returns the pool's arena handle.
func (pool *ResourcePool) Handle() PoolHandle { return pool.handle }

// Members returns the pool's member resources.
func (pool *ResourcePool) Members() []*Resource { return pool.members }

// poolRequestMembership cancels a still-queued pool-level request when its
// owning entity is terminated.
type poolRequestMembership struct {
	pool *ResourcePool
	req  *Request
}

func (m poolRequestMembership) release() {
	m.pool.requestQ.remove(m.req)
}

// grantPlan finalizes a PoolAllocation for entity from a committed
// {member: amount} plan, performing each member's actual allocate (spec
// §4.6: the allocate only ever happens from the granted process's own
// context, which both SeizeFromPool's immediate path and its resumed-after-
// suspend path funnel through here).
func (pool *ResourcePool) grantPlan(entity EntityHandle, plan []ResourceAmount) *PoolAllocation {
	pa := &PoolAllocation{pool: pool}
	for _, ra := range plan {
		if ra.Amount <= 0 {
			continue
		}
		pa.parts = append(pa.parts, ra.Resource.grantAmount(entity, ra.Amount))
	}
	if e, ok := pool.model.entities[entity]; ok {
		e.addMembership(poolAllocationMembership{model: pool.model, pa: pa})
	}
	return pa
}

// poolAllocationMembership releases every member share of a PoolAllocation
// when its owning entity is terminated (spec §4.3).
type poolAllocationMembership struct {
	model *Model
	pa    *PoolAllocation
}

func (m poolAllocationMembership) release() { _ = m.model.ReleasePool(m.pa) }

// ReleasePool returns every member share of pa to its resource, each via the
// ordinary Release path (so each member's own RequestQ, and the pool's
// queue, gets re-processed).
func (m *Model) ReleasePool(pa *PoolAllocation) error {
	for _, alloc := range pa.parts {
		if err := m.Release(alloc); err != nil {
			return err
		}
	}
	return nil
}

// SeizeFromPool asks the pool for amount units, decomposed across a subset of
// members by SelectionRule/AllocationRule (spec §3, §4.7). If no subset is
// currently eligible, the process suspends until one is.
func (p *Process) SeizeFromPool(pool *ResourcePool, amount int) (*PoolAllocation, error) {
	if amount <= 0 {
		return nil, invalidArgument("SeizeFromPool", "amount", amount)
	}
	if subset := pool.selectRule(pool.members, amount, liveCapacity); subset != nil {
		if plan := pool.allocRule(subset, amount, liveCapacity); plan != nil {
			return pool.grantPlan(p.entity, plan), nil
		}
	}
	req := &Request{entity: p.entity, process: p, amount: amount, queuedAt: p.model.now}
	pool.requestQ.enqueue(req, pool.model.prio.Queue)
	if e, ok := p.model.entities[p.entity]; ok {
		e.addMembership(poolRequestMembership{pool: pool, req: req})
	}
	// As with RequestQ (spec §4.6), process_pool_queue only commits to a
	// plan and schedules this resumption; grantPlan runs here, after control
	// returns to this process's own goroutine.
	if err := p.suspend("SeizeFromPool"); err != nil {
		return nil, err
	}
	return pool.grantPlan(p.entity, req.poolPlan), nil
}

// processPoolQueue retries queued pool requests after any member resource
// frees capacity; called from Release when the released allocation's
// resource belongs to a pool. It only commits each grantee to a plan and
// schedules its resumption — grantPlan itself runs later, from the resumed
// process's own context. A local reservation overlay on top of each
// member's real capacity prevents multiple requests committed within the
// same pass from overcommitting a member before any of their real grants
// have actually landed.
func (pool *ResourcePool) processPoolQueue() {
	reserved := make(map[*Resource]int)
	avail := func(r *Resource) int { return liveCapacity(r) - reserved[r] }
	for {
		req, ok := pool.requestQ.q.Peek()
		if !ok {
			return
		}
		subset := pool.selectRule(pool.members, req.amount, avail)
		if subset == nil {
			return
		}
		plan := pool.allocRule(subset, req.amount, avail)
		if plan == nil {
			return
		}
		_, _ = pool.requestQ.q.Dequeue()
		for _, ra := range plan {
			reserved[ra.Resource] += ra.Amount
		}
		req.poolPlan = plan
		proc := req.process
		_, _ = pool.model.Schedule(0, pool.model.prio.Seize, "pool_seize_granted", func() {
			pool.model.resumeProcessGoroutine(proc, false)
		})
	}
}

// poolOf finds the pool (if any) that a resource belongs to, so Release can
// retry pool-level waiters after a member's capacity frees up.
func (m *Model) poolOf(r *Resource) *ResourcePool {
	for _, pool := range m.pools {
		for _, member := range pool.members {
			if member == r {
				return pool
			}
		}
	}
	return nil
}
