package seating

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-allocation/internal/milp"
	"github.com/iliyamo/event-seat-allocation/internal/model"
)

func newOrchestrator(primary Strategy) *Orchestrator {
	return NewOrchestrator(primary, NewGreedyAssigner(nil), nil)
}

func attemptStatuses(res *Result) []Status {
	out := make([]Status, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		out = append(out, a.Status)
	}
	return out
}

func TestOrchestrator_ExactSucceeds(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: ".....", prio: prio("x", 1, "y", 2)})
	x := addHost(snap, 1, "x", "main", 3)
	y := addHost(snap, 2, "y", "main", 2)

	res, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Equal(t, []Status{StatusOptimal}, attemptStatuses(res))
	assert.Equal(t, ExactName, res.Attempts[0].Strategy)
	assert.True(t, res.Complete())
	assert.Equal(t, map[uint64]uint64{
		x[0]: 100, x[1]: 101, x[2]: 102,
		y[0]: 103, y[1]: 104,
	}, res.Assignments)
	assert.Equal(t, int64(7), res.Cost)
	assert.Equal(t, uint64(1), res.EventID)
}

func TestOrchestrator_InfeasibleFallsBackToGreedy(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "...|.."})
	a := addHost(snap, 1, "a", "main", 3)
	b := addHost(snap, 2, "a", "main", 2)
	addHost(snap, 3, "a", "main", 2)

	res, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Equal(t, []Status{StatusInfeasible, StatusPartial}, attemptStatuses(res))
	assert.Equal(t, GreedyName, res.Attempts[1].Strategy)
	assert.False(t, res.Complete())
	assert.Equal(t, []uint64{3}, res.Unseated)
	assert.Equal(t, map[uint64]uint64{
		a[0]: 100, a[1]: 101, a[2]: 102,
		b[0]: 103, b[1]: 104,
	}, res.Assignments)
}

func TestOrchestrator_ScenarioB(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "...|...", prio: prio("x", 1)})
	addHost(snap, 1, "x", "main", 4)

	res, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Equal(t, []Status{StatusInfeasible, StatusPartial}, attemptStatuses(res))
	assert.Empty(t, res.Assignments)
	assert.Equal(t, []uint64{1}, res.Unseated)
}

func TestOrchestrator_NothingPending(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "..."})

	res, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Empty(t, res.Attempts)
	assert.Empty(t, res.Assignments)
	assert.True(t, res.Complete())
}

func TestOrchestrator_PrimaryAbortedRunsFallbackOnCleanTopology(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "..."})
	guests := addHost(snap, 1, "a", "main", 3)
	primary := &stubStrategy{name: "stub", fn: func(p *Problem, topo *Topology) Outcome {
		// Leave the topology dirty; the fallback must not see it.
		for i := range topo.Snapshot().Seats {
			topo.Take(i)
		}
		return Outcome{Status: StatusAborted, Reason: "deadline exceeded"}
	}}

	res, err := newOrchestrator(primary).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, []Status{StatusAborted, StatusComplete}, attemptStatuses(res))
	assert.Equal(t, map[uint64]uint64{guests[0]: 100, guests[1]: 101, guests[2]: 102}, res.Assignments)
}

func TestOrchestrator_ExactTimeoutFallsBack(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "..|.."})
	guests := addHost(snap, 1, "a", "main", 2)
	blocking := solverFunc(func(ctx context.Context, _ *milp.Model) (*milp.Solution, error) {
		<-ctx.Done()
		return &milp.Solution{Status: milp.StatusNotSolved}, nil
	})

	start := time.Now()
	res, err := newOrchestrator(NewExactAssigner(blocking, 10*time.Millisecond, nil)).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, []Status{StatusAborted, StatusComplete}, attemptStatuses(res))
	assert.Equal(t, map[uint64]uint64{guests[0]: 100, guests[1]: 101}, res.Assignments)
}

func TestOrchestrator_MultipleZoneTypes(t *testing.T) {
	snap := newSnapshot(
		testZone{name: "stalls", layout: "..."},
		testZone{name: "box", typ: "vip", layout: ".."},
	)
	vip := addHost(snap, 2, "a", "vip", 2)
	stalls := addHost(snap, 1, "a", "main", 3)

	res, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.NoError(t, err)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, "main", res.Attempts[0].ZoneType)
	assert.Equal(t, "vip", res.Attempts[1].ZoneType)
	assert.Equal(t, map[uint64]uint64{
		stalls[0]: 100, stalls[1]: 101, stalls[2]: 102,
		vip[0]: 103, vip[1]: 104,
	}, res.Assignments)
}

func TestOrchestrator_InvalidSnapshot(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "..."})
	snap.Seats[1].Zone = 7

	res, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.ErrorIs(t, err, model.ErrInvalidSnapshot)
	assert.Nil(t, res)
}

func TestOrchestrator_InvalidFallbackPlacement(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: ".x."})
	guests := addHost(snap, 1, "a", "main", 2)
	primary := &stubStrategy{name: "stub", fn: func(*Problem, *Topology) Outcome {
		return Outcome{Status: StatusAborted}
	}}
	fallback := &stubStrategy{name: "bad", fn: func(*Problem, *Topology) Outcome {
		return Outcome{Status: StatusComplete, Assignments: map[uint64]uint64{guests[0]: 100, guests[1]: 101}}
	}}

	res, err := NewOrchestrator(primary, fallback, nil).Run(context.Background(), snap)

	require.ErrorIs(t, err, ErrInvalidPlacement)
	assert.Contains(t, err.Error(), "ineligible seat 101")
	assert.Nil(t, res)
}

func TestOrchestrator_InvalidPrimaryPlacementIsDemoted(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "..,.."})
	guests := addHost(snap, 1, "a", "main", 2)
	primary := &stubStrategy{name: "stub", fn: func(*Problem, *Topology) Outcome {
		return Outcome{Status: StatusOptimal, Assignments: map[uint64]uint64{guests[0]: 101, guests[1]: 102}}
	}}

	res, err := newOrchestrator(primary).Run(context.Background(), snap)

	require.NoError(t, err)
	assert.Equal(t, []Status{StatusAborted, StatusComplete}, attemptStatuses(res))
	assert.Contains(t, res.Attempts[0].Reason, "not contiguous")
	assert.Equal(t, map[uint64]uint64{guests[0]: 100, guests[1]: 101}, res.Assignments)
}

func TestVerifyOutcome(t *testing.T) {
	snap := newSnapshot(
		testZone{name: "hall", layout: "....o"},
		testZone{name: "box", typ: "vip", layout: ".."},
	)
	a := addHost(snap, 1, "a", "main", 2)
	b := addHost(snap, 2, "a", "main", 1)
	p := BuildProblems(snap)[0]

	tests := []struct {
		name        string
		assignments map[uint64]uint64
		wantErr     string
	}{
		{name: "valid", assignments: map[uint64]uint64{a[0]: 101, a[1]: 102, b[0]: 100}},
		{name: "empty", assignments: map[uint64]uint64{}},
		{name: "unknown seat", assignments: map[uint64]uint64{b[0]: 999}, wantErr: "unknown seat"},
		{name: "other zone type", assignments: map[uint64]uint64{b[0]: 105}, wantErr: "outside zone type"},
		{name: "occupied", assignments: map[uint64]uint64{b[0]: 104}, wantErr: "ineligible"},
		{name: "double booked", assignments: map[uint64]uint64{a[0]: 100, a[1]: 101, b[0]: 101}, wantErr: "assigned to guests"},
		{name: "split host", assignments: map[uint64]uint64{a[0]: 100}, wantErr: "partially"},
		{name: "reversed order", assignments: map[uint64]uint64{a[0]: 101, a[1]: 100}, wantErr: "not contiguous"},
		{name: "stranger", assignments: map[uint64]uint64{b[0]: 100, 4242: 101}, wantErr: "not pending"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyOutcome(snap, p, &Outcome{Assignments: tt.assignments})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOrchestrator_DoesNotMutateSnapshot(t *testing.T) {
	snap := newSnapshot(testZone{name: "hall", layout: "...."})
	addHost(snap, 1, "a", "main", 2)

	_, err := newOrchestrator(newExact()).Run(context.Background(), snap)

	require.NoError(t, err)
	for _, g := range snap.Guests {
		assert.Nil(t, g.SeatID)
	}
	for _, s := range snap.Seats {
		assert.Equal(t, model.SeatFree, s.Occupancy)
	}
}
