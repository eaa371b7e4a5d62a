package desim

// Handles are small integer indices into the Model's arena collections,
// rather than owning object graphs — per the design note that the source's
// pervasive inner-class back-references (Process -> Entity -> Model) should
// become handles here, avoiding cyclic ownership. The Model owns the slab
// of entities/processes/resources/pools, keyed by these handles. Requests
// and Allocations name their entity by EntityHandle; they, queues, and event
// closures refer to processes and resources by pointer.

// EntityHandle identifies an Entity within a Model.
type EntityHandle uint64

// ProcessHandle identifies a Process within a Model.
type ProcessHandle uint64

// ResourceHandle identifies a Resource within a Model.
type ResourceHandle uint64

// PoolHandle identifies a ResourcePool within a Model.
type PoolHandle uint64
