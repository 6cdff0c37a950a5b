package repository

import (
	"context"
	"database/sql"
)

// Zone is a row of the zones table.  ZoneType groups zones that serve the
// same kind of guest request.
type Zone struct {
	ID       uint64
	EventID  uint64
	Name     string
	ZoneType string
}

// ZonePriority is a row of zone_priorities: the rank of one zone for one
// affiliation, 1 being the most preferred.  Rows are returned in insertion
// order so that the first entry for an affiliation wins.
type ZonePriority struct {
	ZoneID      uint64
	Affiliation string
	Priority    int
}

// ZoneRepo provides read access to zones and their priority tables.
type ZoneRepo struct {
	db *sql.DB
}

// NewZoneRepo constructs a ZoneRepo with the given DB handle.
func NewZoneRepo(db *sql.DB) *ZoneRepo { return &ZoneRepo{db: db} }

// ListByEvent returns the zones of an event ordered by id.
func (r *ZoneRepo) ListByEvent(ctx context.Context, eventID uint64) ([]Zone, error) {
	const q = `SELECT id, event_id, name, zone_type
	           FROM zones
	           WHERE event_id = ?
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Zone
	for rows.Next() {
		var z Zone
		if err := rows.Scan(&z.ID, &z.EventID, &z.Name, &z.ZoneType); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// ListPriorities returns every priority entry of the event's zones.
func (r *ZoneRepo) ListPriorities(ctx context.Context, eventID uint64) ([]ZonePriority, error) {
	const q = `SELECT p.zone_id, p.affiliation, p.priority
	           FROM zone_priorities p
	           JOIN zones z ON z.id = p.zone_id
	           WHERE z.event_id = ?
	           ORDER BY p.zone_id, p.id`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ZonePriority
	for rows.Next() {
		var p ZonePriority
		if err := rows.Scan(&p.ZoneID, &p.Affiliation, &p.Priority); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
