package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
)

// Register mounts every endpoint of the reservation API on the given
// Echo instance.  bookingLimiter is applied only to the booking
// endpoint; reads and lifecycle transitions are left unthrottled
// because they never contend for a time slot.
func Register(e *echo.Echo, h *handler.ReservationHandler, bookingLimiter echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	g := e.Group("/v1")

	// Booking is the contended write path and carries the rate limiter.
	g.POST("/reservations", h.Create, bookingLimiter)

	g.GET("/reservations/:id", h.Get)
	g.GET("/reservations", h.List)

	// Lifecycle transitions.
	g.POST("/reservations/:id/confirm", h.Confirm)
	g.POST("/reservations/:id/cancel", h.Cancel)
	g.POST("/reservations/:id/complete", h.Complete)
	g.POST("/reservations/:id/no-show", h.NoShow)

	// Slot availability lookup served from the read-through cache.
	g.GET("/tables/:id/availability", h.CheckAvailability)
}
