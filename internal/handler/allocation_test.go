package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-seat-allocation/internal/repository"
	"github.com/iliyamo/event-seat-allocation/internal/runlock"
	"github.com/iliyamo/event-seat-allocation/internal/seating"
	"github.com/iliyamo/event-seat-allocation/internal/service"
)

type fakeAllocations struct {
	err      error
	gotEvent uint64
	gotLimit int
}

func (f *fakeAllocations) report(eventID uint64, dry bool) *service.Report {
	rep := &service.Report{
		EventID:       eventID,
		DryRun:        dry,
		Status:        service.RunComplete,
		Assigned:      2,
		UnseatedHosts: []uint64{},
		Cost:          2,
		Outcomes: []seating.Outcome{
			{Strategy: seating.ExactName, ZoneType: "main", Status: seating.StatusOptimal, Cost: 2},
		},
	}
	if dry {
		rep.Assignments = map[uint64]uint64{11: 101, 12: 102}
	} else {
		rep.RunID = "run-1"
	}
	return rep
}

func (f *fakeAllocations) Allocate(_ context.Context, eventID uint64) (*service.Report, error) {
	f.gotEvent = eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.report(eventID, false), nil
}

func (f *fakeAllocations) Preview(_ context.Context, eventID uint64) (*service.Report, error) {
	f.gotEvent = eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.report(eventID, true), nil
}

func (f *fakeAllocations) Runs(_ context.Context, eventID uint64, limit int) ([]repository.AllocationRun, error) {
	f.gotEvent, f.gotLimit = eventID, limit
	if f.err != nil {
		return nil, f.err
	}
	return []repository.AllocationRun{{
		ID: "run-1", EventID: eventID, Status: "COMPLETE", Assigned: 2, Cost: 2,
		CreatedAt: time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
	}}, nil
}

type fakeLayout struct {
	err       error
	gotMinLen int
}

func (f *fakeLayout) Blocks(_ context.Context, _, zoneID uint64, minLen int) ([]service.BlockView, error) {
	f.gotMinLen = minLen
	if f.err != nil {
		return nil, f.err
	}
	return []service.BlockView{{ZoneID: zoneID, Length: 1, Seats: []service.SeatView{{ID: 101, RowLabel: "A", SeatNumber: 1}}}}, nil
}

func newTestServer(a *fakeAllocations, l *fakeLayout) *echo.Echo {
	h := NewAllocationHandler(a, l, nil)
	e := echo.New()
	e.GET("/healthz", Health)
	e.GET("/v1/events/:event_id/allocations", h.ListRuns)
	e.POST("/v1/events/:event_id/allocations", h.Allocate)
	e.POST("/v1/events/:event_id/allocations/preview", h.Preview)
	e.GET("/v1/events/:event_id/zones/:zone_id/blocks", h.Blocks)
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(&fakeAllocations{}, &fakeLayout{}), http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAllocate(t *testing.T) {
	alloc := &fakeAllocations{}
	rec := do(newTestServer(alloc, &fakeLayout{}), http.MethodPost, "/v1/events/7/allocations")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), alloc.gotEvent)
	assert.JSONEq(t, `{
		"run_id": "run-1",
		"event_id": 7,
		"dry_run": false,
		"status": "COMPLETE",
		"assigned": 2,
		"unseated_hosts": [],
		"cost": 2,
		"outcomes": [{"strategy": "exact", "zone_type": "main", "status": "OPTIMAL", "cost": 2}]
	}`, rec.Body.String())
}

func TestPreview_IncludesAssignments(t *testing.T) {
	rec := do(newTestServer(&fakeAllocations{}, &fakeLayout{}), http.MethodPost, "/v1/events/7/allocations/preview")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		DryRun      bool              `json:"dry_run"`
		Assignments map[string]uint64 `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.DryRun)
	assert.Equal(t, map[string]uint64{"11": 101, "12": 102}, body.Assignments)
}

func TestAllocate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"unknown event", repository.ErrEventNotFound, http.StatusNotFound, "event not found"},
		{"locked", runlock.ErrRunInProgress, http.StatusConflict, "in progress"},
		{"conflict", fmt.Errorf("seat 3: %w", repository.ErrConflict), http.StatusConflict, "retry"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "cancelled"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestServer(&fakeAllocations{err: tt.err}, &fakeLayout{}), http.MethodPost, "/v1/events/7/allocations")

			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.msg)
		})
	}
}

func TestBadIDs(t *testing.T) {
	e := newTestServer(&fakeAllocations{}, &fakeLayout{})

	for _, target := range []string{"/v1/events/abc/allocations", "/v1/events/0/allocations"} {
		assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPost, target).Code, target)
	}
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/events/1/zones/x/blocks").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/events/1/zones/2/blocks?min_len=0").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/events/1/allocations?limit=500").Code)
}

func TestBlocks(t *testing.T) {
	layout := &fakeLayout{}
	e := newTestServer(&fakeAllocations{}, layout)

	rec := do(e, http.MethodGet, "/v1/events/1/zones/10/blocks?min_len=3")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, layout.gotMinLen)
	assert.JSONEq(t, `{
		"zone_id": 10,
		"min_len": 3,
		"blocks": [{"zone_id": 10, "length": 1, "seats": [{"id": 101, "row_label": "A", "seat_number": 1}]}]
	}`, rec.Body.String())

	layout.err = repository.ErrZoneNotFound
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/events/1/zones/99/blocks").Code)
	assert.Equal(t, 1, layout.gotMinLen)
}

func TestListRuns(t *testing.T) {
	alloc := &fakeAllocations{}
	rec := do(newTestServer(alloc, &fakeLayout{}), http.MethodGet, "/v1/events/4/allocations?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, alloc.gotLimit)
	assert.JSONEq(t, `{"runs": [{
		"id": "run-1", "status": "COMPLETE", "assigned": 2, "unseated_hosts": 0,
		"cost": 2, "created_at": "2026-05-01T18:00:00Z"
	}]}`, rec.Body.String())
}
