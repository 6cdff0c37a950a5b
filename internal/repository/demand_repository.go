package repository

import (
	"context"
	"database/sql"
)

// Host is a row of the hosts table.
type Host struct {
	ID          uint64
	EventID     uint64
	Name        string
	Affiliation string
}

// Guest is a row of the guests table.  SeatID is nil until the guest is
// allocated.
type Guest struct {
	ID       uint64
	HostID   uint64
	ZoneType string
	SeatID   *uint64
}

// DemandRepo lists the hosts of an event and the guests they bring.
type DemandRepo struct {
	db *sql.DB
}

// NewDemandRepo constructs a DemandRepo with the given DB handle.
func NewDemandRepo(db *sql.DB) *DemandRepo { return &DemandRepo{db: db} }

// ListHosts returns the event's hosts ordered by id.
func (r *DemandRepo) ListHosts(ctx context.Context, eventID uint64) ([]Host, error) {
	const q = `SELECT id, event_id, name, affiliation
	           FROM hosts
	           WHERE event_id = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Host
	for rows.Next() {
		var h Host
		if err := rows.Scan(&h.ID, &h.EventID, &h.Name, &h.Affiliation); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListGuests returns the guests of all hosts of the event ordered by host
// then guest id, which is the order a host's party is seated in.
func (r *DemandRepo) ListGuests(ctx context.Context, eventID uint64) ([]Guest, error) {
	const q = `SELECT g.id, g.host_id, g.zone_type, g.seat_id
	           FROM guests g
	           JOIN hosts h ON h.id = g.host_id
	           WHERE h.event_id = ?
	           ORDER BY g.host_id, g.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Guest
	for rows.Next() {
		var (
			g    Guest
			seat sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.HostID, &g.ZoneType, &seat); err != nil {
			return nil, err
		}
		if seat.Valid {
			id := uint64(seat.Int64)
			g.SeatID = &id
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
