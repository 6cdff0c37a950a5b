// Package service runs allocations end to end: it serializes runs per
// event, loads the snapshot, invokes the seating core, commits the result
// and announces it.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-allocation/internal/model"
	"github.com/iliyamo/event-seat-allocation/internal/queue"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
	"github.com/iliyamo/event-seat-allocation/internal/runlock"
	"github.com/iliyamo/event-seat-allocation/internal/seating"
)

// Allocator computes assignments for a snapshot.  *seating.Orchestrator
// implements it.
type Allocator interface {
	Run(ctx context.Context, snap *model.Snapshot) (*seating.Result, error)
}

// AllocationStore persists committed runs.
type AllocationStore interface {
	Commit(ctx context.Context, run *repository.AllocationRun, assignments []repository.Assignment) error
	ListRuns(ctx context.Context, eventID uint64, limit int) ([]repository.AllocationRun, error)
}

// Invalidator drops cached views of an event after its seats changed.
type Invalidator interface {
	InvalidateEvent(ctx context.Context, eventID uint64) error
}

// Report describes one allocation run.  Assignments is only filled for
// previews.
type Report struct {
	RunID         string            `json:"run_id,omitempty"`
	EventID       uint64            `json:"event_id"`
	DryRun        bool              `json:"dry_run"`
	Status        string            `json:"status"`
	Assigned      int               `json:"assigned"`
	UnseatedHosts []uint64          `json:"unseated_hosts"`
	Cost          int64             `json:"cost"`
	Outcomes      []seating.Outcome `json:"outcomes"`
	Assignments   map[uint64]uint64 `json:"assignments,omitempty"`
}

// Run statuses stored in allocation_runs.
const (
	RunComplete = "COMPLETE"
	RunPartial  = "PARTIAL"
)

// AllocationService wires the seating core to storage and messaging.
type AllocationService struct {
	loader      *SnapshotLoader
	allocator   Allocator
	store       AllocationStore
	locker      runlock.Locker
	publisher   Publisher
	invalidator Invalidator
	log         *zap.Logger
}

// Option customizes an AllocationService.
type Option func(*AllocationService)

// WithPublisher sets the publisher for committed runs.
func WithPublisher(p Publisher) Option {
	return func(s *AllocationService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithInvalidator sets the cache invalidator called after a commit.
func WithInvalidator(i Invalidator) Option {
	return func(s *AllocationService) { s.invalidator = i }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *AllocationService) {
		if l != nil {
			s.log = l
		}
	}
}

// NewAllocationService creates the service.  Publishing defaults to a
// no-op and runs are serialized in-process unless a locker is given.
func NewAllocationService(loader *SnapshotLoader, allocator Allocator, store AllocationStore, locker runlock.Locker, opts ...Option) *AllocationService {
	if locker == nil {
		locker = runlock.NewLocalLocker()
	}
	s := &AllocationService{
		loader:    loader,
		allocator: allocator,
		store:     store,
		locker:    locker,
		publisher: NopPublisher{},
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview computes an allocation without committing it.
func (s *AllocationService) Preview(ctx context.Context, eventID uint64) (*Report, error) {
	_, snap, err := s.loader.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := s.allocator.Run(ctx, snap)
	if err != nil {
		return nil, err
	}
	rep := newReport(res)
	rep.DryRun = true
	rep.Assignments = res.Assignments
	return rep, nil
}

// Allocate computes and commits an allocation for the event.  It fails
// with runlock.ErrRunInProgress while another run holds the event and
// with repository.ErrConflict when the seats changed underneath the run.
func (s *AllocationService) Allocate(ctx context.Context, eventID uint64) (*Report, error) {
	lease, err := s.locker.Acquire(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer func() {
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lease.Release(relCtx); err != nil {
			s.log.Warn("release allocation lock", zap.Uint64("event_id", eventID), zap.Error(err))
		}
	}()

	ev, snap, err := s.loader.Load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := s.allocator.Run(ctx, snap)
	if err != nil {
		return nil, err
	}
	rep := newReport(res)

	outcomes, err := json.Marshal(rep.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("encode outcomes: %w", err)
	}
	run := &repository.AllocationRun{
		ID:            uuid.NewString(),
		EventID:       eventID,
		Status:        rep.Status,
		Assigned:      rep.Assigned,
		UnseatedHosts: len(rep.UnseatedHosts),
		Cost:          rep.Cost,
		Outcomes:      outcomes,
	}
	if err := s.store.Commit(ctx, run, sortedAssignments(res.Assignments)); err != nil {
		s.log.Warn("allocation commit failed", zap.Uint64("event_id", eventID), zap.Error(err))
		return nil, err
	}
	rep.RunID = run.ID
	s.log.Info("allocation committed",
		zap.String("run_id", run.ID),
		zap.Uint64("event_id", eventID),
		zap.String("status", rep.Status),
		zap.Int("assigned", rep.Assigned),
		zap.Int("unseated_hosts", len(rep.UnseatedHosts)),
		zap.Int64("cost", rep.Cost),
	)

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateEvent(ctx, eventID); err != nil {
			s.log.Warn("cache invalidation failed", zap.Uint64("event_id", eventID), zap.Error(err))
		}
	}
	if err := s.publisher.PublishAllocated(ctx, completedEvent(ev, rep)); err != nil {
		s.log.Warn("publish allocation event failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	return rep, nil
}

// Runs lists the latest committed runs of an event.
func (s *AllocationService) Runs(ctx context.Context, eventID uint64, limit int) ([]repository.AllocationRun, error) {
	if _, err := s.loader.Events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListRuns(ctx, eventID, limit)
}

func newReport(res *seating.Result) *Report {
	rep := &Report{
		EventID:       res.EventID,
		Status:        RunComplete,
		Assigned:      len(res.Assignments),
		UnseatedHosts: res.Unseated,
		Cost:          res.Cost,
		Outcomes:      res.Attempts,
	}
	if !res.Complete() {
		rep.Status = RunPartial
	}
	if rep.UnseatedHosts == nil {
		rep.UnseatedHosts = []uint64{}
	}
	if rep.Outcomes == nil {
		rep.Outcomes = []seating.Outcome{}
	}
	return rep
}

func sortedAssignments(m map[uint64]uint64) []repository.Assignment {
	out := make([]repository.Assignment, 0, len(m))
	for g, s := range m {
		out = append(out, repository.Assignment{GuestID: g, SeatID: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuestID < out[j].GuestID })
	return out
}

// completedEvent summarizes the usable outcome of each zone type.
func completedEvent(ev *repository.Event, rep *Report) queue.AllocationCompletedEvent {
	out := queue.AllocationCompletedEvent{
		RunID:         rep.RunID,
		EventID:       rep.EventID,
		EventName:     ev.Name,
		Status:        rep.Status,
		Assigned:      rep.Assigned,
		UnseatedHosts: rep.UnseatedHosts,
		Cost:          rep.Cost,
		CompletedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, o := range rep.Outcomes {
		if !o.Usable() {
			continue
		}
		out.ZoneTypes = append(out.ZoneTypes, queue.ZoneTypeResult{
			ZoneType: o.ZoneType,
			Strategy: o.Strategy,
			Status:   string(o.Status),
			Cost:     o.Cost,
		})
	}
	return out
}
