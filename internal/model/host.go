package model

// Host sponsors a group of guests.  Affiliation is the organisational unit
// used to look up zone priorities.
type Host struct {
	ID          uint64 // hosts.id
	Name        string // hosts.name
	Affiliation string // hosts.affiliation
}

// Guest is seated on behalf of a host.  SeatID is nil until the guest has
// been assigned a seat.
type Guest struct {
	ID       uint64  // guests.id
	HostID   uint64  // guests.host_id
	ZoneType string  // guests.zone_type requested for this guest
	SeatID   *uint64 // guests.seat_id (nullable)
}

// Seated reports whether the guest already holds a seat.
func (g *Guest) Seated() bool { return g.SeatID != nil }
