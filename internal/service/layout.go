package service

import (
	"context"

	"github.com/iliyamo/event-seat-allocation/internal/repository"
	"github.com/iliyamo/event-seat-allocation/internal/seating"
)

// SeatView is a seat inside a BlockView.
type SeatView struct {
	ID         uint64 `json:"id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
}

// BlockView is a maximal run of allocatable seats.
type BlockView struct {
	ZoneID uint64     `json:"zone_id"`
	Length int        `json:"length"`
	Seats  []SeatView `json:"seats"`
}

// LayoutService answers read-only questions about an event's seating.
type LayoutService struct {
	loader *SnapshotLoader
}

// NewLayoutService creates a LayoutService.
func NewLayoutService(loader *SnapshotLoader) *LayoutService {
	return &LayoutService{loader: loader}
}

// Blocks returns the runs of at least minLen allocatable seats in the zone,
// in seat order.  Seats of already seated guests are not allocatable.
func (s *LayoutService) Blocks(ctx context.Context, eventID, zoneID uint64, minLen int) ([]BlockView, error) {
	_, snap, err := s.loader.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	zone := -1
	for i := range snap.Zones {
		if snap.Zones[i].ID == zoneID {
			zone = i
			break
		}
	}
	if zone < 0 {
		return nil, repository.ErrZoneNotFound
	}

	blocks := seating.NewTopology(snap).Blocks(zone, minLen)
	out := make([]BlockView, 0, len(blocks))
	for _, b := range blocks {
		view := BlockView{ZoneID: zoneID, Length: b.Len(), Seats: make([]SeatView, 0, b.Len())}
		for _, si := range b.Seats {
			seat := &snap.Seats[si]
			view.Seats = append(view.Seats, SeatView{ID: seat.ID, RowLabel: seat.RowLabel, SeatNumber: seat.SeatNumber})
		}
		out = append(out, view)
	}
	return out, nil
}
