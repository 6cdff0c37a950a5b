package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_LinkZoneSeats(t *testing.T) {
	snap := &Snapshot{
		Zones: []Zone{{ID: 1, Type: "main"}, {ID: 2, Type: "main"}, {ID: 3, Type: "general"}},
		Seats: []Seat{
			{ID: 10, Zone: 0, Position: 3},
			{ID: 11, Zone: 1, Position: 1},
			{ID: 12, Zone: 0, Position: 1},
			{ID: 13, Zone: 0, Position: 2},
		},
	}

	snap.LinkZoneSeats()

	require.NoError(t, snap.Validate())
	assert.Equal(t, []int{2, 3, 0}, snap.ZoneSeats(0))
	assert.Equal(t, []int{1}, snap.ZoneSeats(1))
	assert.Empty(t, snap.ZoneSeats(2))
	assert.Equal(t, NoSeat, snap.Zones[2].FirstSeat)
	assert.Equal(t, NoSeat, snap.Seats[0].Next)
}

func TestSnapshot_Validate(t *testing.T) {
	t.Run("nil snapshot", func(t *testing.T) {
		var snap *Snapshot
		require.ErrorIs(t, snap.Validate(), ErrInvalidSnapshot)
	})

	t.Run("next out of range", func(t *testing.T) {
		snap := &Snapshot{
			Zones: []Zone{{ID: 1, FirstSeat: 0}},
			Seats: []Seat{{ID: 1, Zone: 0, Next: 5}},
		}
		require.ErrorIs(t, snap.Validate(), ErrInvalidSnapshot)
	})

	t.Run("zone out of range", func(t *testing.T) {
		snap := &Snapshot{
			Zones: []Zone{{ID: 1, FirstSeat: 0}},
			Seats: []Seat{{ID: 1, Zone: 4, Next: NoSeat}},
		}
		require.ErrorIs(t, snap.Validate(), ErrInvalidSnapshot)
	})

	t.Run("cycle", func(t *testing.T) {
		snap := &Snapshot{
			Zones: []Zone{{ID: 1, FirstSeat: 0}},
			Seats: []Seat{{ID: 1, Zone: 0, Next: 1}, {ID: 2, Zone: 0, Next: 0}},
		}
		err := snap.Validate()
		require.ErrorIs(t, err, ErrInvalidSnapshot)
		assert.Contains(t, err.Error(), "appears twice")
	})

	t.Run("next crosses into another zone", func(t *testing.T) {
		snap := &Snapshot{
			Zones: []Zone{{ID: 1, FirstSeat: 0}, {ID: 2, FirstSeat: 1}},
			Seats: []Seat{{ID: 1, Zone: 0, Next: 1}, {ID: 2, Zone: 1, Next: NoSeat}},
		}
		err := snap.Validate()
		require.ErrorIs(t, err, ErrInvalidSnapshot)
		assert.Contains(t, err.Error(), "another zone")
	})

	t.Run("unlinked seat is allowed", func(t *testing.T) {
		snap := &Snapshot{
			Zones: []Zone{{ID: 1, FirstSeat: 0}},
			Seats: []Seat{{ID: 1, Zone: 0, Next: NoSeat}, {ID: 2, Zone: 0, Next: NoSeat}},
		}
		require.NoError(t, snap.Validate())
	})
}

func TestSnapshot_ZoneSeatsStopsOnCycle(t *testing.T) {
	snap := &Snapshot{
		Zones: []Zone{{ID: 1, FirstSeat: 0}},
		Seats: []Seat{{ID: 1, Zone: 0, Next: 1}, {ID: 2, Zone: 0, Next: 0}},
	}
	assert.Len(t, snap.ZoneSeats(0), 2)
}

func TestSnapshot_ZoneTypesSkipsSeatedGuests(t *testing.T) {
	seat := uint64(7)
	snap := &Snapshot{Guests: []Guest{
		{ID: 1, ZoneType: "main"},
		{ID: 2, ZoneType: "roped", SeatID: &seat},
		{ID: 3, ZoneType: "general"},
		{ID: 4, ZoneType: "main"},
	}}
	assert.Equal(t, []string{"general", "main"}, snap.ZoneTypes())
}

func TestZone_PriorityForFirstEntryWins(t *testing.T) {
	z := Zone{Priorities: []Priority{
		{Affiliation: "physics", Value: 3},
		{Affiliation: "physics", Value: 1},
	}}
	v, ok := z.PriorityFor("physics")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = z.PriorityFor("history")
	assert.False(t, ok)
}

func TestSeat_Eligible(t *testing.T) {
	tests := []struct {
		name string
		seat Seat
		want bool
	}{
		{name: "normal and free", seat: Seat{State: SeatNormal, Occupancy: SeatFree}, want: true},
		{name: "occupied", seat: Seat{State: SeatNormal, Occupancy: SeatOccupied}, want: false},
		{name: "reserved", seat: Seat{State: SeatReserved, Occupancy: SeatFree}, want: false},
		{name: "blocked", seat: Seat{State: SeatBlocked, Occupancy: SeatFree}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.seat.Eligible())
		})
	}
}
