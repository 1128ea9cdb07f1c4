package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// RestaurantRepo provides read access to restaurants.  The booking core
// only consumes the booking-policy columns (operating hours and the
// advance-booking window).
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo returns a new RestaurantRepo bound to the given database.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// GetByID loads a restaurant.  ErrNotFound is returned when the
// restaurant does not exist.  TIME columns arrive as raw bytes and are
// normalised to HH:MM:SS strings.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	const q = `SELECT id, name, opening_time, closing_time, reservation_duration,
	                  advance_booking_days, is_active, created_at, updated_at
	           FROM restaurants WHERE id = ?`
	var (
		rest             model.Restaurant
		opening, closing []byte
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rest.ID, &rest.Name, &opening, &closing, &rest.ReservationDuration,
		&rest.AdvanceBookingDays, &rest.IsActive, &rest.CreatedAt, &rest.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rest.OpeningTime = string(opening)
	rest.ClosingTime = string(closing)
	return &rest, nil
}
