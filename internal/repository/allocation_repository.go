package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Assignment places one guest on one seat.
type Assignment struct {
	GuestID uint64
	SeatID  uint64
}

// AllocationRun is the audit row written with every committed allocation.
// Outcomes holds the JSON encoded strategy attempts.
type AllocationRun struct {
	ID            string
	EventID       uint64
	Status        string // COMPLETE | PARTIAL
	Assigned      int
	UnseatedHosts int
	Cost          int64
	Outcomes      []byte
	CreatedAt     time.Time
}

// AllocationRepo writes allocation results.
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo constructs an AllocationRepo with the given DB handle.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

// Commit applies the assignments and records run in one transaction.
// Each seat must still be NORMAL and FREE inside the event and each guest
// must still be unseated; otherwise nothing is written and the error wraps
// ErrConflict.  run.ID is generated when empty.
func (r *AllocationRepo) Commit(ctx context.Context, run *AllocationRun, assignments []Assignment) (err error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	ordered := make([]Assignment, len(assignments))
	copy(ordered, assignments)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SeatID < ordered[j].SeatID })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const takeSeat = `UPDATE seats s
	                  JOIN zones z ON z.id = s.zone_id
	                  SET s.occupancy = 'OCCUPIED'
	                  WHERE s.id = ? AND z.event_id = ? AND s.state = 'NORMAL' AND s.occupancy = 'FREE'`
	const seatGuest = `UPDATE guests SET seat_id = ? WHERE id = ? AND seat_id IS NULL`
	for _, a := range ordered {
		if err := execOne(ctx, tx, takeSeat, a.SeatID, run.EventID); err != nil {
			return fmt.Errorf("seat %d: %w", a.SeatID, err)
		}
		if err := execOne(ctx, tx, seatGuest, a.SeatID, a.GuestID); err != nil {
			return fmt.Errorf("guest %d: %w", a.GuestID, err)
		}
	}

	const insertRun = `INSERT INTO allocation_runs (id, event_id, status, assigned, unseated_hosts, cost, outcomes)
	                   VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		run.ID, run.EventID, run.Status, run.Assigned, run.UnseatedHosts, run.Cost, run.Outcomes,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// execOne runs a guarded update that must touch exactly one row.
func execOne(ctx context.Context, tx *sql.Tx, q string, args ...any) error {
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrConflict
	}
	return nil
}

// ListRuns returns the most recent runs of an event, newest first.
func (r *AllocationRepo) ListRuns(ctx context.Context, eventID uint64, limit int) ([]AllocationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT id, event_id, status, assigned, unseated_hosts, cost, outcomes, created_at
	           FROM allocation_runs
	           WHERE event_id = ?
	           ORDER BY created_at DESC, id
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, eventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AllocationRun
	for rows.Next() {
		var run AllocationRun
		if err := rows.Scan(
			&run.ID, &run.EventID, &run.Status, &run.Assigned, &run.UnseatedHosts,
			&run.Cost, &run.Outcomes, &run.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
