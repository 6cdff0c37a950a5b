package seating

import (
	"context"

	"github.com/iliyamo/event-seat-allocation/internal/milp"
	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// testZone describes a zone for newSnapshot.  Layout characters:
//
//	.  normal free seat
//	o  occupied seat
//	r  reserved seat
//	x  blocked seat
//	|  row break after the previous seat
//	,  gap break after the previous seat
type testZone struct {
	name   string
	typ    string
	layout string
	prio   []model.Priority
}

// newSnapshot builds a snapshot whose seat IDs start at 100 and increase
// across zones in layout order.
func newSnapshot(zones ...testZone) *model.Snapshot {
	snap := &model.Snapshot{EventID: 1}
	seatID := uint64(100)
	for zi, z := range zones {
		typ := z.typ
		if typ == "" {
			typ = "main"
		}
		snap.Zones = append(snap.Zones, model.Zone{ID: uint64(zi + 1), Name: z.name, Type: typ, Priorities: z.prio})
		pos := uint32(0)
		for _, ch := range z.layout {
			switch ch {
			case '|':
				snap.Seats[len(snap.Seats)-1].RowBreak = true
				continue
			case ',':
				snap.Seats[len(snap.Seats)-1].GapBreak = true
				continue
			}
			seat := model.Seat{ID: seatID, Zone: zi, Position: pos, State: model.SeatNormal, Occupancy: model.SeatFree}
			switch ch {
			case 'o':
				seat.Occupancy = model.SeatOccupied
			case 'r':
				seat.State = model.SeatReserved
			case 'x':
				seat.State = model.SeatBlocked
			}
			snap.Seats = append(snap.Seats, seat)
			seatID++
			pos++
		}
	}
	snap.LinkZoneSeats()
	return snap
}

// addHost appends a host with n pending guests for zoneType.  Guest IDs
// are hostID*100+i.
func addHost(snap *model.Snapshot, hostID uint64, affiliation, zoneType string, n int) []uint64 {
	snap.Hosts = append(snap.Hosts, model.Host{ID: hostID, Affiliation: affiliation})
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = hostID*100 + uint64(i)
		snap.Guests = append(snap.Guests, model.Guest{ID: ids[i], HostID: hostID, ZoneType: zoneType})
	}
	return ids
}

func prio(pairs ...any) []model.Priority {
	var out []model.Priority
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, model.Priority{Affiliation: pairs[i].(string), Value: pairs[i+1].(int)})
	}
	return out
}

func blockSeatIDs(snap *model.Snapshot, blocks []Block) [][]uint64 {
	out := make([][]uint64, 0, len(blocks))
	for _, b := range blocks {
		ids := make([]uint64, 0, b.Len())
		for _, si := range b.Seats {
			ids = append(ids, snap.Seats[si].ID)
		}
		out = append(out, ids)
	}
	return out
}

func onlyProblem(snap *model.Snapshot) *Problem {
	problems := BuildProblems(snap)
	if len(problems) != 1 {
		panic("expected exactly one zone type")
	}
	return problems[0]
}

func newExact() *ExactAssigner {
	return NewExactAssigner(milp.NewBranchAndBound(milp.WithNodeLimit(100000)), 0, nil)
}

type solverFunc func(ctx context.Context, m *milp.Model) (*milp.Solution, error)

func (f solverFunc) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	return f(ctx, m)
}

type stubStrategy struct {
	name  string
	calls int
	fn    func(p *Problem, topo *Topology) Outcome
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Assign(_ context.Context, p *Problem, topo *Topology) Outcome {
	s.calls++
	out := s.fn(p, topo)
	out.Strategy = s.name
	out.ZoneType = p.ZoneType
	return out
}
