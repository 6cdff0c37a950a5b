package model

// Priority is one entry of a zone's sparse priority table.  Lower values
// are preferred; the value 0 means the affiliation has no real priority
// for the zone.
type Priority struct {
	Affiliation string // zone_priorities.affiliation
	Value       int    // zone_priorities.priority
}

// Zone is a named seating area.  Its seats form a sequence starting at
// FirstSeat and linked through Seat.Next.
//
// Fields:
//  ID         – zones.id
//  Name       – zones.name
//  Type       – zones.zone_type, the category guests request.
//  FirstSeat  – index of the first seat in Snapshot.Seats, NoSeat if empty.
//  Priorities – sparse affiliation priority table in storage order.
type Zone struct {
	ID         uint64     // zones.id
	Name       string     // zones.name
	Type       string     // zones.zone_type
	FirstSeat  int        // index into Snapshot.Seats or NoSeat
	Priorities []Priority // zone_priorities rows for this zone
}

// PriorityFor returns the priority value configured for the affiliation.
// When the table holds more than one entry for the same affiliation the
// first one wins.
func (z *Zone) PriorityFor(affiliation string) (int, bool) {
	for _, p := range z.Priorities {
		if p.Affiliation == affiliation {
			return p.Value, true
		}
	}
	return 0, false
}
