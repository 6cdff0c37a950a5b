package seating

import (
	"math"
	"sort"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

// NoPriority is the cost of a zone that has no usable priority entry for
// an affiliation.  It sorts after every configured value.
const NoPriority = math.MaxInt32

// PriorityCost returns the zone's priority value for the affiliation.  A
// missing entry or an entry of exactly 0 yields NoPriority.
func PriorityCost(z *model.Zone, affiliation string) int {
	v, ok := z.PriorityFor(affiliation)
	if !ok || v == 0 {
		return NoPriority
	}
	return v
}

// OrderZones returns the given zone indices sorted by ascending priority
// for the affiliation.  Ties keep their input order.
func OrderZones(snap *model.Snapshot, affiliation string, zones []int) []int {
	out := append([]int(nil), zones...)
	sort.SliceStable(out, func(i, j int) bool {
		return PriorityCost(&snap.Zones[out[i]], affiliation) < PriorityCost(&snap.Zones[out[j]], affiliation)
	})
	return out
}
