package handler

import (
	"context"  // transition callback signatures
	"errors"   // for errors.Is/As comparisons
	"net/http" // HTTP status codes
	"strconv"  // parsing path and query parameters
	"time"     // Retry-After formatting

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-reservation/internal/availability"
	"github.com/iliyamo/restaurant-reservation/internal/booking"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// ReservationHandler exposes the booking core over HTTP.  Creation and
// the slot-freeing transitions go through the coordinator so that the
// lock, cache and notification plumbing is applied uniformly; plain
// reads go straight to the repository.
type ReservationHandler struct {
	Coordinator  *booking.Coordinator
	Reservations *repository.ReservationRepo
	Availability *availability.Cache
}

// NewReservationHandler constructs a ReservationHandler.  Coordinator
// and repository must be non-nil; availability may be nil when Redis is
// not configured.
func NewReservationHandler(coord *booking.Coordinator, repo *repository.ReservationRepo, avail *availability.Cache) *ReservationHandler {
	if coord == nil || repo == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Coordinator: coord, Reservations: repo, Availability: avail}
}

// Create handles POST /v1/reservations.  Outcome mapping: 201 with the
// pending reservation on success; 400 for validation failures; 409 when
// the slot is occupied; 423 with a Retry-After header when lock
// contention exhausted its retry budget; 500 for infrastructure
// failures.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req booking.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Coordinator.Book(c.Request().Context(), req)
	if err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason, "field": verr.Field})
		}
		if errors.Is(err, booking.ErrSlotTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table is not available at that date and time"})
		}
		var busy *booking.LockBusyError
		if errors.As(err, &busy) {
			seconds := int(busy.RetryAfter / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			return c.JSON(http.StatusLocked, echo.Map{
				"error":       "table is being reserved by another request",
				"retry_after": seconds,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, res)
}

// List handles GET /v1/reservations?customer_id=N and returns the
// customer's reservations, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	customerID, err := strconv.ParseUint(c.QueryParam("customer_id"), 10, 64)
	if err != nil || customerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id query parameter is required"})
	}
	items, err := h.Reservations.ListByCustomer(c.Request().Context(), customerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Confirm handles POST /v1/reservations/:id/confirm, moving a pending
// reservation to confirmed before its deadline.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	return h.transition(c, h.Coordinator.Confirm)
}

// Cancel handles DELETE /v1/reservations/:id.  Cancelling frees the
// slot for other bookings.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.Coordinator.Cancel)
}

// Complete handles POST /v1/reservations/:id/complete.
func (h *ReservationHandler) Complete(c echo.Context) error {
	return h.transition(c, h.Coordinator.Complete)
}

// NoShow handles POST /v1/reservations/:id/no-show.
func (h *ReservationHandler) NoShow(c echo.Context) error {
	return h.transition(c, h.Coordinator.MarkNoShow)
}

// transition runs one coordinator status change and maps its error
// surface: 404 when the reservation does not exist, 409 when it is not
// in a state the transition accepts.
func (h *ReservationHandler) transition(c echo.Context, op func(ctx context.Context, id string) (*model.Reservation, error)) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := op(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		if errors.Is(err, repository.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not in a state that allows this change"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update reservation"})
	}
	return c.JSON(http.StatusOK, res)
}

// CheckAvailability handles GET /v1/tables/:id/availability?date=&time=.
// The answer is advisory (bounded staleness); booking remains the only
// authoritative check.
func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	if h.Availability == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "availability cache not configured"})
	}
	tableID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	date, timeStr := c.QueryParam("date"), c.QueryParam("time")
	if date == "" || timeStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date and time query parameters are required"})
	}
	slot := model.Slot{TableID: tableID, Date: date, Time: timeStr}
	free, err := h.Availability.IsAvailable(c.Request().Context(), slot)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"table_id":  tableID,
		"date":      date,
		"time":      timeStr,
		"available": free,
	})
}
