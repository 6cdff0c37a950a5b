package seating

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// ErrInvalidPlacement is returned by Run when the fallback strategy
// produced assignments that violate seat eligibility or contiguity.
var ErrInvalidPlacement = errors.New("invalid placement")

// Result is the combined placement of one run over all requested zone
// types.  Assignments may be partial when the greedy strategy could not
// seat every host; Unseated lists those hosts.
type Result struct {
	EventID     uint64
	Assignments map[uint64]uint64 // guest ID -> seat ID
	Attempts    []Outcome         // every strategy attempt, in order
	Unseated    []uint64          // host IDs left unseated
	Cost        int64
}

// Complete reports whether every pending guest received a seat.
func (r *Result) Complete() bool { return len(r.Unseated) == 0 }

// Orchestrator runs the primary strategy for each zone type and, when it
// does not produce an optimal placement, reruns the fallback from a clean
// topology.
type Orchestrator struct {
	primary  Strategy
	fallback Strategy
	log      *zap.Logger
}

// NewOrchestrator wires the two strategies.  A nil logger disables logging.
func NewOrchestrator(primary, fallback Strategy, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{primary: primary, fallback: fallback, log: log}
}

// Run computes assignments for every unseated guest of the snapshot.  The
// snapshot is not modified.  Errors are returned only for a malformed
// snapshot or an invalid fallback placement; infeasibility and solver
// limits are reported in the Result.
func (o *Orchestrator) Run(ctx context.Context, snap *model.Snapshot) (*Result, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	res := &Result{EventID: snap.EventID, Assignments: map[uint64]uint64{}}

	for _, p := range BuildProblems(snap) {
		out := o.primary.Assign(ctx, p, NewTopology(snap))
		if out.Status == StatusOptimal {
			if err := verifyOutcome(snap, p, &out); err != nil {
				out.Status = StatusAborted
				out.Reason = err.Error()
				out.Assignments = nil
			}
		}
		res.Attempts = append(res.Attempts, out)

		if out.Status != StatusOptimal {
			o.log.Info("primary strategy failed, running fallback",
				zap.Uint64("event_id", snap.EventID),
				zap.String("zone_type", p.ZoneType),
				zap.String("strategy", out.Strategy),
				zap.String("status", string(out.Status)),
				zap.String("reason", out.Reason),
			)
			out = o.fallback.Assign(ctx, p, NewTopology(snap))
			if err := verifyOutcome(snap, p, &out); err != nil {
				o.log.Error("fallback produced an invalid placement",
					zap.Uint64("event_id", snap.EventID),
					zap.String("zone_type", p.ZoneType),
					zap.Error(err),
				)
				return nil, fmt.Errorf("%w: %v", ErrInvalidPlacement, err)
			}
			res.Attempts = append(res.Attempts, out)
		}

		for g, s := range out.Assignments {
			res.Assignments[g] = s
		}
		res.Unseated = append(res.Unseated, out.Unseated...)
		res.Cost += out.Cost

		o.log.Info("zone type allocated",
			zap.Uint64("event_id", snap.EventID),
			zap.String("zone_type", p.ZoneType),
			zap.String("strategy", out.Strategy),
			zap.String("status", string(out.Status)),
			zap.Int("assigned", len(out.Assignments)),
			zap.Int("unseated_hosts", len(out.Unseated)),
			zap.Int64("cost", out.Cost),
		)
	}
	sort.Slice(res.Unseated, func(i, j int) bool { return res.Unseated[i] < res.Unseated[j] })
	return res, nil
}

// verifyOutcome checks that every assigned guest is pending in p, every
// seat belongs to one of p's zones, was eligible before the run and is
// used once, and that each host's seats form one run.
func verifyOutcome(snap *model.Snapshot, p *Problem, out *Outcome) error {
	topo := NewTopology(snap)
	seatIdx := snap.SeatIndexByID()
	inProblem := make(map[int]bool, len(p.Zones))
	for _, z := range p.Zones {
		inProblem[z] = true
	}
	used := make(map[uint64]uint64, len(out.Assignments))
	pending := 0
	for _, d := range p.Demands {
		var seats []int
		for _, g := range d.Guests {
			seatID, ok := out.Assignments[g]
			if !ok {
				continue
			}
			pending++
			si, known := seatIdx[seatID]
			if !known {
				return fmt.Errorf("guest %d assigned unknown seat %d", g, seatID)
			}
			if !inProblem[snap.Seats[si].Zone] {
				return fmt.Errorf("guest %d assigned seat %d outside zone type %q", g, seatID, p.ZoneType)
			}
			if !topo.Eligible(si) {
				return fmt.Errorf("guest %d assigned ineligible seat %d", g, seatID)
			}
			if other, dup := used[seatID]; dup {
				return fmt.Errorf("seat %d assigned to guests %d and %d", seatID, other, g)
			}
			used[seatID] = g
			seats = append(seats, si)
		}
		if len(seats) != 0 && len(seats) != len(d.Guests) {
			return fmt.Errorf("host %d seated partially (%d of %d)", d.Host.ID, len(seats), len(d.Guests))
		}
		for k := 0; k+1 < len(seats); k++ {
			cur := &snap.Seats[seats[k]]
			if cur.Next != seats[k+1] || cur.Breaks() {
				return fmt.Errorf("host %d seats are not contiguous", d.Host.ID)
			}
		}
	}
	if pending != len(out.Assignments) {
		return fmt.Errorf("placement contains %d guests not pending in zone type %q", len(out.Assignments)-pending, p.ZoneType)
	}
	return nil
}
