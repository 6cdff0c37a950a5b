package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSnapshot is returned by Validate when an index inside the
// snapshot points outside of its arena or a zone's seat sequence is not a
// simple chain of that zone's seats.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the read-only view of one event's seating state that an
// allocation run works on.  It is produced by the snapshot loader and is
// never written back; the result of a run is a guest to seat map.
type Snapshot struct {
	EventID uint64
	Zones   []Zone
	Seats   []Seat
	Hosts   []Host
	Guests  []Guest
}

// Validate checks that every zone and seat index refers into the arena and
// that each zone's sequence, followed from FirstSeat, visits only seats of
// that zone and none of them twice.  Seats reachable from no zone are
// allowed; they never form part of a block.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	n := len(s.Seats)
	for i := range s.Zones {
		if f := s.Zones[i].FirstSeat; f != NoSeat && (f < 0 || f >= n) {
			return fmt.Errorf("%w: zone %d first seat %d out of range", ErrInvalidSnapshot, s.Zones[i].ID, f)
		}
	}
	for i := range s.Seats {
		seat := &s.Seats[i]
		if seat.Zone < 0 || seat.Zone >= len(s.Zones) {
			return fmt.Errorf("%w: seat %d zone %d out of range", ErrInvalidSnapshot, seat.ID, seat.Zone)
		}
		if seat.Next != NoSeat && (seat.Next < 0 || seat.Next >= n) {
			return fmt.Errorf("%w: seat %d next %d out of range", ErrInvalidSnapshot, seat.ID, seat.Next)
		}
	}
	visited := make([]bool, n)
	for zi := range s.Zones {
		for i := s.Zones[zi].FirstSeat; i != NoSeat; i = s.Seats[i].Next {
			seat := &s.Seats[i]
			if seat.Zone != zi {
				return fmt.Errorf("%w: zone %d sequence reaches seat %d of another zone", ErrInvalidSnapshot, s.Zones[zi].ID, seat.ID)
			}
			if visited[i] {
				return fmt.Errorf("%w: seat %d appears twice in zone %d sequence", ErrInvalidSnapshot, seat.ID, s.Zones[zi].ID)
			}
			visited[i] = true
		}
	}
	return nil
}

// ZoneSeats returns the arena indices of the zone's seats in sequence order.
func (s *Snapshot) ZoneSeats(zone int) []int {
	var out []int
	for i, steps := s.Zones[zone].FirstSeat, 0; i != NoSeat && steps < len(s.Seats); i, steps = s.Seats[i].Next, steps+1 {
		out = append(out, i)
	}
	return out
}

// ZoneTypes returns the distinct zone types requested by unseated guests,
// sorted.
func (s *Snapshot) ZoneTypes() []string {
	seen := map[string]bool{}
	var out []string
	for i := range s.Guests {
		g := &s.Guests[i]
		if g.Seated() || seen[g.ZoneType] {
			continue
		}
		seen[g.ZoneType] = true
		out = append(out, g.ZoneType)
	}
	sort.Strings(out)
	return out
}

// ZonesOfType returns the indices of zones of the given type in snapshot order.
func (s *Snapshot) ZonesOfType(zoneType string) []int {
	var out []int
	for i := range s.Zones {
		if s.Zones[i].Type == zoneType {
			out = append(out, i)
		}
	}
	return out
}

// SeatIndexByID builds a lookup from seat ID to arena index.
func (s *Snapshot) SeatIndexByID() map[uint64]int {
	idx := make(map[uint64]int, len(s.Seats))
	for i := range s.Seats {
		idx[s.Seats[i].ID] = i
	}
	return idx
}

// LinkZoneSeats fills Seat.Next and Zone.FirstSeat from the seats' zone
// membership and Position.  Loaders call it after appending seats in any
// order.
func (s *Snapshot) LinkZoneSeats() {
	byZone := make([][]int, len(s.Zones))
	for i := range s.Seats {
		z := s.Seats[i].Zone
		byZone[z] = append(byZone[z], i)
	}
	for z, idx := range byZone {
		sort.SliceStable(idx, func(a, b int) bool {
			return s.Seats[idx[a]].Position < s.Seats[idx[b]].Position
		})
		s.Zones[z].FirstSeat = NoSeat
		if len(idx) > 0 {
			s.Zones[z].FirstSeat = idx[0]
		}
		for k, seat := range idx {
			if k+1 < len(idx) {
				s.Seats[seat].Next = idx[k+1]
			} else {
				s.Seats[seat].Next = NoSeat
			}
		}
	}
}
