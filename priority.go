package desim

// Priority orders events scheduled for the same virtual time: lower values
// fire first (spec §2/§6). The fixed numeric ordering below realizes the
// deterministic race resolutions described in spec §5 — without caller
// overrides, RESUME < RELEASE < SEIZE < DELAY.
type Priority int

// Default priority constants, spec §6. Callers may use any int value; these
// are the conventional defaults used by the suspension primitives when a
// model doesn't care to override them.
const (
	PriorityResume           Priority = 0
	PriorityRelease          Priority = 10
	PrioritySeize            Priority = 20
	PriorityDelay            Priority = 30
	PriorityMove             Priority = 40
	PriorityYield            Priority = 50
	PriorityBlockage         Priority = 60
	PriorityConveyorRequest  Priority = 70
	PriorityConveyorExit     Priority = 80
	PriorityTransportRequest Priority = 90
	PriorityWaitFor          Priority = 100
	PriorityQueue            Priority = 110
)

// PriorityTable allows a model to remap the default priority constants,
// e.g. for scenarios replaying a source model's custom priority scheme.
// The zero value gives every tier priority 0; DefaultPriorityTable returns
// the default table above.
type PriorityTable struct {
	Resume, Release, Seize, Delay               Priority
	Move, Yield, Blockage                       Priority
	ConveyorRequest, ConveyorExit               Priority
	TransportRequest, WaitFor, Queue            Priority
}

// DefaultPriorityTable returns the standard priority table described above.
func DefaultPriorityTable() PriorityTable {
	return PriorityTable{
		Resume:           PriorityResume,
		Release:          PriorityRelease,
		Seize:            PrioritySeize,
		Delay:            PriorityDelay,
		Move:             PriorityMove,
		Yield:            PriorityYield,
		Blockage:         PriorityBlockage,
		ConveyorRequest:  PriorityConveyorRequest,
		ConveyorExit:     PriorityConveyorExit,
		TransportRequest: PriorityTransportRequest,
		WaitFor:          PriorityWaitFor,
		Queue:            PriorityQueue,
	}
}
