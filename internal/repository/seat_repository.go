package repository

import (
	"context"
	"database/sql"
)

// Seat represents a physical seat of a zone.  Position orders the seats of
// a zone; RowBreak and GapBreak mark the last seat of a row or the seat
// before an aisle.
type Seat struct {
	ID         uint64
	ZoneID     uint64
	Position   uint32
	RowLabel   string // e.g. A, B, AA
	SeatNumber uint32 // position in the row (1-based)
	State      string // NORMAL | RESERVED | BLOCKED
	Occupancy  string // FREE | OCCUPIED
	RowBreak   bool
	GapBreak   bool
}

// SeatRepo provides read access to seats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatColumns = `s.id, s.zone_id, s.position, s.row_label, s.seat_number, s.state, s.occupancy, s.row_break, s.gap_break`

// ListByEvent retrieves every seat of the event's zones ordered by zone
// then position.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]Seat, error) {
	const q = `SELECT ` + seatColumns + `
	           FROM seats s
	           JOIN zones z ON z.id = s.zone_id
	           WHERE z.event_id = ?
	           ORDER BY s.zone_id, s.position`
	return r.list(ctx, q, eventID)
}

func (r *SeatRepo) list(ctx context.Context, q string, arg uint64) ([]Seat, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Seat
	for rows.Next() {
		var s Seat
		if err := rows.Scan(
			&s.ID, &s.ZoneID, &s.Position, &s.RowLabel, &s.SeatNumber,
			&s.State, &s.Occupancy, &s.RowBreak, &s.GapBreak,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
