package model

// SeatState is the administrative state of a seat.  Only NORMAL seats
// can ever be handed out by an allocation run.
type SeatState string

const (
	SeatNormal   SeatState = "NORMAL"   // seat can be allocated
	SeatReserved SeatState = "RESERVED" // held back by the organiser
	SeatBlocked  SeatState = "BLOCKED"  // physically unusable
)

// Occupancy records whether a guest already sits on a seat.
type Occupancy string

const (
	SeatFree     Occupancy = "FREE"
	SeatOccupied Occupancy = "OCCUPIED"
)

// NoSeat marks the end of a zone's seat sequence and an empty zone.
const NoSeat = -1

// Seat describes a physical seat inside a zone.  Seats live in the
// Snapshot.Seats arena; Zone and Next are indices into the snapshot so a
// snapshot can be copied and inspected without shared references.
//
// Fields:
//  ID         – seats.id
//  Zone       – index of the owning zone in Snapshot.Zones.
//  Position   – ordinal position within the zone (seats.position).
//  Next       – index of the following seat in the zone, NoSeat if last.
//  RowLabel   – row designation, display only.
//  SeatNumber – number within the row, display only.
//  State      – NORMAL, RESERVED or BLOCKED.
//  Occupancy  – FREE or OCCUPIED.
//  RowBreak   – a new row starts after this seat.
//  GapBreak   – a physical gap (aisle, pillar) follows this seat.
type Seat struct {
	ID         uint64    // seats.id
	Zone       int       // index into Snapshot.Zones
	Position   uint32    // seats.position
	Next       int       // index into Snapshot.Seats or NoSeat
	RowLabel   string    // seats.row_label
	SeatNumber uint32    // seats.seat_number
	State      SeatState // seats.state
	Occupancy  Occupancy // seats.occupancy
	RowBreak   bool      // seats.row_break
	GapBreak   bool      // seats.gap_break
}

// Eligible reports whether the seat may receive a guest: it must be in the
// NORMAL state and currently free.
func (s *Seat) Eligible() bool {
	return s.State == SeatNormal && s.Occupancy == SeatFree
}

// Breaks reports whether a contiguous run must end after this seat.
func (s *Seat) Breaks() bool {
	return s.RowBreak || s.GapBreak
}
