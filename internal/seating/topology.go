// Package seating assigns unseated guests to seats.  Guests of the same
// host always occupy one contiguous run of seats.  Two strategies are
// available: ExactAssigner solves a 0/1 program for the cheapest placement
// under the zones' affiliation priorities, GreedyAssigner seats hosts one
// by one into runs of exactly the right size.  Orchestrator tries the
// exact strategy first and falls back to the greedy one.
package seating

import "github.com/iliyamo/event-seat-allocation/internal/model"

// Topology is a working view of a snapshot's seats.  Seats taken during a
// run are tracked here; the snapshot itself is never modified.
type Topology struct {
	snap  *model.Snapshot
	taken []bool
}

// NewTopology creates a clean working view.  Seats referenced by guests
// that are already seated count as taken even when their occupancy flag
// says otherwise.
func NewTopology(snap *model.Snapshot) *Topology {
	t := &Topology{snap: snap, taken: make([]bool, len(snap.Seats))}
	var idx map[uint64]int
	for i := range snap.Guests {
		g := &snap.Guests[i]
		if !g.Seated() {
			continue
		}
		if idx == nil {
			idx = snap.SeatIndexByID()
		}
		if si, ok := idx[*g.SeatID]; ok {
			t.taken[si] = true
		}
	}
	return t
}

// Snapshot returns the underlying snapshot.
func (t *Topology) Snapshot() *model.Snapshot { return t.snap }

// Eligible reports whether seat i can still receive a guest.
func (t *Topology) Eligible(i int) bool {
	return !t.taken[i] && t.snap.Seats[i].Eligible()
}

// Take marks seat i as used by the current run.
func (t *Topology) Take(i int) { t.taken[i] = true }

// Block is a maximal run of eligible seats in one zone with no break
// marker between consecutive seats.
type Block struct {
	Zone  int   // index into Snapshot.Zones
	Seats []int // indices into Snapshot.Seats, in sequence order
}

// Len returns the number of seats in the block.
func (b Block) Len() int { return len(b.Seats) }

// Blocks walks the zone's seat sequence and returns its maximal eligible
// runs that hold at least minLen seats.  An ineligible seat ends the
// current run and never starts one.  A seat with a row or gap break is
// the last seat of its run.  Runs that end shorter than minLen are
// dropped; the scan continues with the next eligible seat.
func (t *Topology) Blocks(zone, minLen int) []Block {
	var (
		out []Block
		run []int
	)
	flush := func() {
		if len(run) > 0 && len(run) >= minLen {
			out = append(out, Block{Zone: zone, Seats: run})
		}
		run = nil
	}
	for _, i := range t.snap.ZoneSeats(zone) {
		if !t.Eligible(i) {
			flush()
			continue
		}
		run = append(run, i)
		if t.snap.Seats[i].Breaks() {
			flush()
		}
	}
	flush()
	return out
}
