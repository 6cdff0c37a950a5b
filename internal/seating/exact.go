package seating

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-allocation/internal/milp"
)

// ExactName identifies ExactAssigner outcomes.
const ExactName = "exact"

// ExactAssigner places all pending guests at minimum total priority cost
// by solving a 0/1 program with one variable per (guest, seat) pair.  The
// attempt either yields a proven optimal placement for every guest or
// fails as a whole.
type ExactAssigner struct {
	solver  milp.Solver
	timeout time.Duration
	log     *zap.Logger
}

var _ Strategy = (*ExactAssigner)(nil)

// NewExactAssigner creates the exact strategy.  timeout bounds each solve
// on top of the caller's context; zero leaves it to the context.
func NewExactAssigner(solver milp.Solver, timeout time.Duration, log *zap.Logger) *ExactAssigner {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExactAssigner{solver: solver, timeout: timeout, log: log}
}

// Name implements Strategy.
func (e *ExactAssigner) Name() string { return ExactName }

// guestVars holds x[block][position] for one guest.
type guestVars struct {
	guestID uint64
	x       [][]milp.Var
}

// Assign implements Strategy.
func (e *ExactAssigner) Assign(ctx context.Context, p *Problem, topo *Topology) Outcome {
	out := Outcome{Strategy: ExactName, ZoneType: p.ZoneType}
	pending := p.Pending()
	if pending == 0 {
		out.Status = StatusOptimal
		out.Assignments = map[uint64]uint64{}
		return out
	}

	var blocks []Block
	capacity, longest := 0, 0
	for _, z := range p.Zones {
		for _, b := range topo.Blocks(z, 1) {
			blocks = append(blocks, b)
			capacity += b.Len()
			longest = max(longest, b.Len())
		}
	}
	if capacity < pending {
		out.Status = StatusInfeasible
		out.Reason = fmt.Sprintf("%d guests pending but only %d eligible seats", pending, capacity)
		return out
	}
	for _, d := range p.Demands {
		if len(d.Guests) > longest {
			out.Status = StatusInfeasible
			out.Reason = fmt.Sprintf("host %d needs %d adjacent seats, longest run has %d", d.Host.ID, len(d.Guests), longest)
			return out
		}
	}

	m, vars := buildModel(topo, p, blocks)
	hinted := seedFirstFit(m, topo, p, blocks, vars)
	e.log.Debug("exact: model built",
		zap.String("zone_type", p.ZoneType),
		zap.Int("guests", pending),
		zap.Int("blocks", len(blocks)),
		zap.Int("vars", m.NumVars()),
		zap.Int("constraints", m.NumConstraints()),
		zap.Bool("hinted", hinted),
	)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	sol, err := e.solver.Solve(ctx, m)
	if err != nil {
		out.Status = StatusAborted
		out.Reason = fmt.Sprintf("solver error: %v", err)
		return out
	}
	switch sol.Status {
	case milp.StatusOptimal:
	case milp.StatusInfeasible:
		out.Status = StatusInfeasible
		out.Reason = "no contiguous placement satisfies all hosts"
		return out
	default:
		out.Status = StatusAborted
		out.Reason = fmt.Sprintf("solver stopped with status %s after %d nodes", sol.Status, sol.Nodes)
		return out
	}

	snap := topo.Snapshot()
	assignments := make(map[uint64]uint64, pending)
	for _, gv := range vars {
		for bi, row := range gv.x {
			for pos, v := range row {
				if !sol.Value(v) {
					continue
				}
				if _, dup := assignments[gv.guestID]; dup {
					out.Status = StatusAborted
					out.Reason = fmt.Sprintf("guest %d assigned twice", gv.guestID)
					return out
				}
				assignments[gv.guestID] = snap.Seats[blocks[bi].Seats[pos]].ID
			}
		}
	}
	if len(assignments) != pending {
		out.Status = StatusAborted
		out.Reason = fmt.Sprintf("solution seats %d of %d guests", len(assignments), pending)
		return out
	}

	out.Status = StatusOptimal
	out.Assignments = assignments
	out.Cost = int64(math.Round(sol.Objective))
	return out
}

// buildModel creates the 0/1 program.  For each host with k guests taken
// in order g0..gk-1 and each block:
//
//   - guest gj may not sit at a position p with p < j or len-p < k-j, so
//     the host's run fits in the block (for g0 this leaves at least k
//     seats from p to the block's end);
//   - if gj sits at p then gj+1 sits at p+1.
//
// Every guest takes exactly one seat, every seat holds at most one guest
// and each variable costs the zone's priority for the host's affiliation.
// Hosts with larger demand come first so the search places them first.
func buildModel(topo *Topology, p *Problem, blocks []Block) (*milp.Model, []guestVars) {
	snap := topo.Snapshot()
	m := milp.NewModel("seating/" + p.ZoneType)

	var (
		vars []guestVars
		obj  []milp.Term
	)
	for _, d := range byDemandDesc(p.Demands) {
		k := len(d.Guests)
		first := len(vars)
		for j, guestID := range d.Guests {
			gv := guestVars{guestID: guestID, x: make([][]milp.Var, len(blocks))}
			var row []milp.Term
			for bi, b := range blocks {
				cost := float64(PriorityCost(&snap.Zones[b.Zone], d.Host.Affiliation))
				gv.x[bi] = make([]milp.Var, b.Len())
				var forbidden []milp.Term
				for pos := range b.Seats {
					v := m.NewBoolVar(fmt.Sprintf("g%d_b%d_p%d", guestID, bi, pos))
					gv.x[bi][pos] = v
					row = append(row, milp.Term{Var: v, Coef: 1})
					obj = append(obj, milp.Term{Var: v, Coef: cost})
					if pos < j || b.Len()-pos < k-j {
						forbidden = append(forbidden, milp.Term{Var: v, Coef: 1})
					}
				}
				if len(forbidden) > 0 {
					m.AddConstraint(fmt.Sprintf("fit_g%d_b%d", guestID, bi), 0, 0, forbidden...)
				}
			}
			m.AddConstraint(fmt.Sprintf("one_seat_g%d", guestID), 1, 1, row...)
			vars = append(vars, gv)
		}
		for j := first; j+1 < len(vars); j++ {
			cur, next := vars[j], vars[j+1]
			for bi, b := range blocks {
				for pos := 0; pos+1 < b.Len(); pos++ {
					m.AddConstraint(fmt.Sprintf("adj_g%d_b%d_p%d", cur.guestID, bi, pos), -milp.Inf, 0,
						milp.Term{Var: cur.x[bi][pos], Coef: 1},
						milp.Term{Var: next.x[bi][pos+1], Coef: -1},
					)
				}
			}
		}
	}

	for bi, b := range blocks {
		for pos := range b.Seats {
			terms := make([]milp.Term, 0, len(vars))
			for _, gv := range vars {
				terms = append(terms, milp.Term{Var: gv.x[bi][pos], Coef: 1})
			}
			m.AddConstraint(fmt.Sprintf("one_guest_b%d_p%d", bi, pos), -milp.Inf, 1, terms...)
		}
	}
	m.Minimize(obj...)
	return m, vars
}

// seedFirstFit packs hosts, largest first, into the leftmost free seats of
// the first block with room, visiting zones in the host's priority order.
// When every host fits, the packing is set as the model's hint so the
// solver starts with an upper bound.  It reports whether a hint was set.
func seedFirstFit(m *milp.Model, topo *Topology, p *Problem, blocks []Block, vars []guestVars) bool {
	snap := topo.Snapshot()
	byZone := make(map[int][]int, len(p.Zones))
	for bi, b := range blocks {
		byZone[b.Zone] = append(byZone[b.Zone], bi)
	}
	used := make([]int, len(blocks))
	at := make(map[uint64][2]int, len(vars))

	for _, d := range byDemandDesc(p.Demands) {
		k := len(d.Guests)
		if k == 0 {
			continue
		}
		placed := false
		for _, z := range OrderZones(snap, d.Host.Affiliation, p.Zones) {
			for _, bi := range byZone[z] {
				if blocks[bi].Len()-used[bi] < k {
					continue
				}
				for j, g := range d.Guests {
					at[g] = [2]int{bi, used[bi] + j}
				}
				used[bi] += k
				placed = true
				break
			}
			if placed {
				break
			}
		}
		if !placed {
			return false
		}
	}

	for _, gv := range vars {
		seat := at[gv.guestID]
		for bi, row := range gv.x {
			for pos, v := range row {
				m.SetHint(v, bi == seat[0] && pos == seat[1])
			}
		}
	}
	return true
}
