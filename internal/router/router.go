// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-allocation/internal/handler"
)

// RegisterRoutes registers routes that need no handler state.  Currently it
// exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAllocation registers the allocation endpoints under
// /v1/events/:event_id.  rateLimit guards the endpoints that run the
// solver; cache fronts the read-only layout endpoint.  Either may be nil.
func RegisterAllocation(e *echo.Echo, h *handler.AllocationHandler, rateLimit, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/events/:event_id")

	var solve []echo.MiddlewareFunc
	if rateLimit != nil {
		solve = append(solve, rateLimit)
	}
	g.POST("/allocations", h.Allocate, solve...)
	g.POST("/allocations/preview", h.Preview, solve...)
	g.GET("/allocations", h.ListRuns)

	var read []echo.MiddlewareFunc
	if cache != nil {
		read = append(read, cache)
	}
	g.GET("/zones/:zone_id/blocks", h.Blocks, read...)
}
