package seating

import (
	"sort"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// Demand is one host's set of unseated guests for a zone type.
type Demand struct {
	Host   model.Host
	Guests []uint64 // guest IDs in the order they will be seated
}

// Problem is the allocation sub-problem for one zone type: the pending
// demand and the zones whose seats may serve it.
type Problem struct {
	ZoneType string
	Zones    []int
	Demands  []Demand
}

// Pending returns the total number of guests to seat.
func (p *Problem) Pending() int {
	n := 0
	for _, d := range p.Demands {
		n += len(d.Guests)
	}
	return n
}

// BuildProblems partitions the snapshot's unseated guests by requested
// zone type.  Problems are returned in zone type order; demands follow the
// snapshot's host order and guests keep snapshot order.  Guests whose host
// is missing from the snapshot are grouped under a host with no
// affiliation.
func BuildProblems(snap *model.Snapshot) []*Problem {
	hostOrder := make(map[uint64]int, len(snap.Hosts))
	for i, h := range snap.Hosts {
		if _, dup := hostOrder[h.ID]; !dup {
			hostOrder[h.ID] = i
		}
	}

	var problems []*Problem
	for _, zt := range snap.ZoneTypes() {
		p := &Problem{ZoneType: zt, Zones: snap.ZonesOfType(zt)}
		at := map[uint64]int{}
		for i := range snap.Guests {
			g := &snap.Guests[i]
			if g.Seated() || g.ZoneType != zt {
				continue
			}
			di, ok := at[g.HostID]
			if !ok {
				host := model.Host{ID: g.HostID}
				if hi, known := hostOrder[g.HostID]; known {
					host = snap.Hosts[hi]
				}
				di = len(p.Demands)
				at[g.HostID] = di
				p.Demands = append(p.Demands, Demand{Host: host})
			}
			p.Demands[di].Guests = append(p.Demands[di].Guests, g.ID)
		}
		sort.SliceStable(p.Demands, func(i, j int) bool {
			return rank(hostOrder, p.Demands[i].Host.ID) < rank(hostOrder, p.Demands[j].Host.ID)
		})
		problems = append(problems, p)
	}
	return problems
}

func rank(order map[uint64]int, id uint64) int {
	if i, ok := order[id]; ok {
		return i
	}
	return len(order)
}

// byDemandDesc returns the demands ordered by descending guest count,
// stable on input order.
func byDemandDesc(demands []Demand) []Demand {
	out := append([]Demand(nil), demands...)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Guests) > len(out[j].Guests)
	})
	return out
}
