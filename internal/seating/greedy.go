package seating

import (
	"context"

	"go.uber.org/zap"
)

// GreedyName identifies GreedyAssigner outcomes.
const GreedyName = "greedy"

// GreedyAssigner seats hosts one at a time, largest demand first.  Each
// host goes into the first run, scanning its zones in priority order,
// whose length equals its guest count exactly.  Hosts without such a run
// stay unseated; no partial or oversized placement is attempted.
type GreedyAssigner struct {
	log *zap.Logger
}

var _ Strategy = (*GreedyAssigner)(nil)

// NewGreedyAssigner creates a greedy strategy.  A nil logger disables logging.
func NewGreedyAssigner(log *zap.Logger) *GreedyAssigner {
	if log == nil {
		log = zap.NewNop()
	}
	return &GreedyAssigner{log: log}
}

// Name implements Strategy.
func (g *GreedyAssigner) Name() string { return GreedyName }

// Assign implements Strategy.  The context is not consulted: the greedy
// pass is bounded and is the fallback for cancelled exact attempts.
func (g *GreedyAssigner) Assign(_ context.Context, p *Problem, topo *Topology) Outcome {
	out := Outcome{Strategy: GreedyName, ZoneType: p.ZoneType, Assignments: map[uint64]uint64{}}
	snap := topo.Snapshot()

	for _, d := range byDemandDesc(p.Demands) {
		need := len(d.Guests)
		if need == 0 {
			continue
		}
		block, ok := g.findRun(topo, d, p.Zones, need)
		if !ok {
			g.log.Debug("greedy: no exact-size run",
				zap.Uint64("host_id", d.Host.ID),
				zap.String("affiliation", d.Host.Affiliation),
				zap.Int("guests", need),
			)
			out.Unseated = append(out.Unseated, d.Host.ID)
			continue
		}
		zoneCost := int64(PriorityCost(&snap.Zones[block.Zone], d.Host.Affiliation))
		for k, guestID := range d.Guests {
			si := block.Seats[k]
			topo.Take(si)
			out.Assignments[guestID] = snap.Seats[si].ID
		}
		out.Cost += zoneCost * int64(need)
	}

	out.Status = StatusComplete
	if len(out.Unseated) > 0 {
		out.Status = StatusPartial
	}
	return out
}

func (g *GreedyAssigner) findRun(topo *Topology, d Demand, zones []int, need int) (Block, bool) {
	for _, z := range OrderZones(topo.Snapshot(), d.Host.Affiliation, zones) {
		for _, b := range topo.Blocks(z, need) {
			if b.Len() == need {
				return b, true
			}
		}
	}
	return Block{}, false
}
