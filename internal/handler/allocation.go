// Package handler exposes the HTTP API of the allocation service.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-allocation/internal/repository"
	"github.com/iliyamo/event-seat-allocation/internal/runlock"
	"github.com/iliyamo/event-seat-allocation/internal/service"
)

// Allocations runs and previews allocations.
type Allocations interface {
	Allocate(ctx context.Context, eventID uint64) (*service.Report, error)
	Preview(ctx context.Context, eventID uint64) (*service.Report, error)
	Runs(ctx context.Context, eventID uint64, limit int) ([]repository.AllocationRun, error)
}

// Layout inspects seat runs.
type Layout interface {
	Blocks(ctx context.Context, eventID, zoneID uint64, minLen int) ([]service.BlockView, error)
}

// AllocationHandler serves the /v1/events/:event_id endpoints.
type AllocationHandler struct {
	Allocations Allocations
	Layout      Layout
	Log         *zap.Logger
}

// NewAllocationHandler constructs an AllocationHandler.  Both services
// must be non-nil.
func NewAllocationHandler(allocations Allocations, layout Layout, log *zap.Logger) *AllocationHandler {
	if allocations == nil || layout == nil {
		panic("nil service passed to NewAllocationHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AllocationHandler{Allocations: allocations, Layout: layout, Log: log}
}

// runView is the JSON form of a committed run.
type runView struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Assigned      int    `json:"assigned"`
	UnseatedHosts int    `json:"unseated_hosts"`
	Cost          int64  `json:"cost"`
	CreatedAt     string `json:"created_at"`
}

// Allocate handles POST /v1/events/:event_id/allocations.  It computes and
// commits an allocation and returns the run report.  409 means another run
// is in progress or the seats changed while this one was computing.
func (h *AllocationHandler) Allocate(c echo.Context) error {
	eventID, ok := parseID(c.Param("event_id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	rep, err := h.Allocations.Allocate(c.Request().Context(), eventID)
	if err != nil {
		return h.fail(c, eventID, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Preview handles POST /v1/events/:event_id/allocations/preview.  The
// report includes the guest to seat map; nothing is written.
func (h *AllocationHandler) Preview(c echo.Context) error {
	eventID, ok := parseID(c.Param("event_id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	rep, err := h.Allocations.Preview(c.Request().Context(), eventID)
	if err != nil {
		return h.fail(c, eventID, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// ListRuns handles GET /v1/events/:event_id/allocations?limit=N.
func (h *AllocationHandler) ListRuns(c echo.Context) error {
	eventID, ok := parseID(c.Param("event_id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
		}
		limit = n
	}
	runs, err := h.Allocations.Runs(c.Request().Context(), eventID, limit)
	if err != nil {
		return h.fail(c, eventID, err)
	}
	out := make([]runView, 0, len(runs))
	for _, r := range runs {
		out = append(out, runView{
			ID:            r.ID,
			Status:        r.Status,
			Assigned:      r.Assigned,
			UnseatedHosts: r.UnseatedHosts,
			Cost:          r.Cost,
			CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"runs": out})
}

// Blocks handles GET /v1/events/:event_id/zones/:zone_id/blocks?min_len=N.
// It lists the zone's maximal runs of allocatable seats.
func (h *AllocationHandler) Blocks(c echo.Context) error {
	eventID, ok := parseID(c.Param("event_id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	zoneID, ok := parseID(c.Param("zone_id"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid zone id"})
	}
	minLen := 1
	if s := c.QueryParam("min_len"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_len must be a positive integer"})
		}
		minLen = n
	}
	blocks, err := h.Layout.Blocks(c.Request().Context(), eventID, zoneID, minLen)
	if err != nil {
		return h.fail(c, eventID, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"zone_id": zoneID, "min_len": minLen, "blocks": blocks})
}

func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	return id, err == nil && id > 0
}

// fail maps service errors onto HTTP responses.
func (h *AllocationHandler) fail(c echo.Context, eventID uint64, err error) error {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrZoneNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "zone not found"})
	case errors.Is(err, runlock.ErrRunInProgress):
		return c.JSON(http.StatusConflict, echo.Map{"error": "allocation already in progress"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seats changed during allocation, retry"})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request cancelled"})
	}
	h.Log.Error("request failed",
		zap.String("path", c.Path()),
		zap.Uint64("event_id", eventID),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
