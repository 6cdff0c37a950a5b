package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Event is a row of the events table.
type Event struct {
	ID        uint64
	Name      string
	CreatedAt time.Time
}

// EventRepo provides read access to events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID returns the event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*Event, error) {
	const q = `SELECT id, name, created_at FROM events WHERE id = ?`
	var e Event
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}
