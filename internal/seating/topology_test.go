package seating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-allocation/internal/model"
)

func TestTopology_Blocks(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		minLen int
		want   [][]uint64
	}{
		{
			name:   "single run",
			layout: ".....",
			want:   [][]uint64{{100, 101, 102, 103, 104}},
		},
		{
			name:   "row break splits runs",
			layout: "...|...",
			want:   [][]uint64{{100, 101, 102}, {103, 104, 105}},
		},
		{
			name:   "row break with target longer than both halves",
			layout: "...|...",
			minLen: 4,
			want:   [][]uint64{},
		},
		{
			name:   "gap break splits runs",
			layout: "..,..",
			want:   [][]uint64{{100, 101}, {102, 103}},
		},
		{
			name:   "ineligible seats end runs and never start one",
			layout: "..x..o...r",
			want:   [][]uint64{{100, 101}, {103, 104}, {106, 107, 108}},
		},
		{
			name:   "short runs are dropped but scanning continues",
			layout: "..|....|.",
			minLen: 3,
			want:   [][]uint64{{102, 103, 104, 105}},
		},
		{
			name:   "break on an ineligible seat",
			layout: "..x|..",
			want:   [][]uint64{{100, 101}, {103, 104}},
		},
		{
			name:   "no eligible seats",
			layout: "xxoor",
			want:   [][]uint64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := newSnapshot(testZone{name: "A", layout: tt.layout})
			blocks := NewTopology(snap).Blocks(0, tt.minLen)
			assert.Equal(t, tt.want, blockSeatIDs(snap, blocks))
		})
	}
}

func TestTopology_SeatedGuestsTakeTheirSeats(t *testing.T) {
	snap := newSnapshot(testZone{name: "A", layout: "....."})
	seat := uint64(101)
	snap.Hosts = append(snap.Hosts, model.Host{ID: 1, Affiliation: "a"})
	snap.Guests = append(snap.Guests, model.Guest{ID: 1, HostID: 1, ZoneType: "main", SeatID: &seat})

	topo := NewTopology(snap)

	assert.False(t, topo.Eligible(1))
	assert.Equal(t, [][]uint64{{100}, {102, 103, 104}}, blockSeatIDs(snap, topo.Blocks(0, 0)))
}

func TestTopology_TakeDoesNotTouchSnapshot(t *testing.T) {
	snap := newSnapshot(testZone{name: "A", layout: "...."})
	topo := NewTopology(snap)

	topo.Take(1)

	require.Equal(t, [][]uint64{{100}, {102, 103}}, blockSeatIDs(snap, topo.Blocks(0, 0)))
	assert.True(t, snap.Seats[1].Eligible())
	assert.Len(t, NewTopology(snap).Blocks(0, 0), 1)
}
