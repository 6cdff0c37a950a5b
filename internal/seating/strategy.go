package seating

import "context"

// Status describes how a strategy attempt ended.
type Status string

const (
	// StatusOptimal: the exact strategy found a proven optimal placement
	// for every pending guest.
	StatusOptimal Status = "OPTIMAL"
	// StatusInfeasible: no contiguous placement of all pending guests exists.
	StatusInfeasible Status = "INFEASIBLE"
	// StatusAborted: the exact strategy gave up (deadline, cancellation,
	// search limit or solver error).
	StatusAborted Status = "ABORTED"
	// StatusComplete: the greedy strategy seated every host.
	StatusComplete Status = "COMPLETE"
	// StatusPartial: the greedy strategy left at least one host unseated.
	StatusPartial Status = "PARTIAL"
)

// Outcome is the typed result of one strategy attempt.  Assignments maps
// guest IDs to seat IDs and is empty unless the attempt produced a usable
// placement.
type Outcome struct {
	Strategy    string            `json:"strategy"`
	ZoneType    string            `json:"zone_type"`
	Status      Status            `json:"status"`
	Assignments map[uint64]uint64 `json:"-"`
	Unseated    []uint64          `json:"unseated_hosts,omitempty"`
	Cost        int64             `json:"cost"`
	Reason      string            `json:"reason,omitempty"`
}

// Usable reports whether the outcome's assignments may be committed.
func (o *Outcome) Usable() bool {
	switch o.Status {
	case StatusOptimal, StatusComplete, StatusPartial:
		return true
	}
	return false
}

// Strategy places the guests of a Problem.  Implementations must only
// take seats that are eligible in topo and must not change anything
// outside topo.
type Strategy interface {
	Name() string
	Assign(ctx context.Context, p *Problem, topo *Topology) Outcome
}
