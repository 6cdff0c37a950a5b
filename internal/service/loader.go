package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/event-seat-allocation/internal/model"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
)

// EventReader looks up events.
type EventReader interface {
	GetByID(ctx context.Context, id uint64) (*repository.Event, error)
}

// ZoneReader lists zones and their priority tables.
type ZoneReader interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]repository.Zone, error)
	ListPriorities(ctx context.Context, eventID uint64) ([]repository.ZonePriority, error)
}

// SeatReader lists seats.
type SeatReader interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]repository.Seat, error)
}

// DemandReader lists hosts and guests.
type DemandReader interface {
	ListHosts(ctx context.Context, eventID uint64) ([]repository.Host, error)
	ListGuests(ctx context.Context, eventID uint64) ([]repository.Guest, error)
}

// SnapshotLoader reads everything an allocation run needs and converts it
// into a linked model.Snapshot.
type SnapshotLoader struct {
	Events EventReader
	Zones  ZoneReader
	Seats  SeatReader
	Demand DemandReader
}

// Load returns the event and its snapshot.  An unknown event yields
// repository.ErrEventNotFound.
func (l *SnapshotLoader) Load(ctx context.Context, eventID uint64) (*repository.Event, *model.Snapshot, error) {
	ev, err := l.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	zones, err := l.Zones.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list zones: %w", err)
	}
	prios, err := l.Zones.ListPriorities(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list priorities: %w", err)
	}
	seats, err := l.Seats.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list seats: %w", err)
	}
	hosts, err := l.Demand.ListHosts(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list hosts: %w", err)
	}
	guests, err := l.Demand.ListGuests(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("list guests: %w", err)
	}

	snap, err := buildSnapshot(eventID, zones, prios, seats, hosts, guests)
	if err != nil {
		return nil, nil, err
	}
	return ev, snap, nil
}

func buildSnapshot(
	eventID uint64,
	zones []repository.Zone,
	prios []repository.ZonePriority,
	seats []repository.Seat,
	hosts []repository.Host,
	guests []repository.Guest,
) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		EventID: eventID,
		Zones:   make([]model.Zone, 0, len(zones)),
		Seats:   make([]model.Seat, 0, len(seats)),
		Hosts:   make([]model.Host, 0, len(hosts)),
		Guests:  make([]model.Guest, 0, len(guests)),
	}
	zoneIdx := make(map[uint64]int, len(zones))
	for _, z := range zones {
		zoneIdx[z.ID] = len(snap.Zones)
		snap.Zones = append(snap.Zones, model.Zone{ID: z.ID, Name: z.Name, Type: z.ZoneType, FirstSeat: model.NoSeat})
	}
	for _, p := range prios {
		zi, ok := zoneIdx[p.ZoneID]
		if !ok {
			continue
		}
		snap.Zones[zi].Priorities = append(snap.Zones[zi].Priorities, model.Priority{Affiliation: p.Affiliation, Value: p.Priority})
	}
	for _, s := range seats {
		zi, ok := zoneIdx[s.ZoneID]
		if !ok {
			return nil, fmt.Errorf("%w: seat %d references unknown zone %d", model.ErrInvalidSnapshot, s.ID, s.ZoneID)
		}
		snap.Seats = append(snap.Seats, model.Seat{
			ID:         s.ID,
			Zone:       zi,
			Position:   s.Position,
			Next:       model.NoSeat,
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			State:      model.SeatState(s.State),
			Occupancy:  model.Occupancy(s.Occupancy),
			RowBreak:   s.RowBreak,
			GapBreak:   s.GapBreak,
		})
	}
	snap.LinkZoneSeats()

	for _, h := range hosts {
		snap.Hosts = append(snap.Hosts, model.Host{ID: h.ID, Name: h.Name, Affiliation: h.Affiliation})
	}
	for _, g := range guests {
		snap.Guests = append(snap.Guests, model.Guest{ID: g.ID, HostID: g.HostID, ZoneType: g.ZoneType, SeatID: g.SeatID})
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}
