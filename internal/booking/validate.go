package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// validate enforces every business rule on a booking request and
// returns the normalised slot.  All rule failures are *ValidationError;
// lookup infrastructure failures propagate unchanged.
func (c *Coordinator) validate(ctx context.Context, req *Request) (model.Slot, error) {
	var none model.Slot
	if req.RestaurantID == 0 {
		return none, invalid("restaurant_id", "required")
	}
	if req.TableID == 0 {
		return none, invalid("table_id", "required")
	}
	if req.CustomerID == 0 {
		return none, invalid("customer_id", "required")
	}
	if req.PartySize < 1 {
		return none, invalid("party_size", "must be at least 1")
	}
	if req.PartySize > c.cfg.MaxPartySize {
		return none, invalid("party_size", fmt.Sprintf("must not exceed %d", c.cfg.MaxPartySize))
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return none, invalid("reservation_date", "must be a date in YYYY-MM-DD form")
	}
	slotTime, err := parseSlotTime(req.Time)
	if err != nil {
		return none, invalid("reservation_time", err.Error())
	}
	interval := int(c.cfg.SlotInterval / time.Minute)
	if interval > 0 && slotTime.minutes()%interval != 0 {
		return none, invalid("reservation_time",
			fmt.Sprintf("bookings are only accepted at %d-minute intervals", interval))
	}

	rest, err := c.dir.RestaurantByID(ctx, req.RestaurantID)
	if errors.Is(err, repository.ErrNotFound) {
		return none, invalid("restaurant_id", "restaurant not found")
	}
	if err != nil {
		return none, err
	}
	if !rest.IsActive {
		return none, invalid("restaurant_id", "restaurant is not accepting bookings")
	}
	table, err := c.dir.TableByID(ctx, req.TableID)
	if errors.Is(err, repository.ErrNotFound) {
		return none, invalid("table_id", "table not found")
	}
	if err != nil {
		return none, err
	}
	if !table.IsActive {
		return none, invalid("table_id", "table is not bookable")
	}
	if table.RestaurantID != req.RestaurantID {
		return none, invalid("table_id", "table does not belong to the selected restaurant")
	}
	if req.PartySize > table.Capacity {
		return none, invalid("party_size",
			fmt.Sprintf("table %s seats at most %d guests", table.Number, table.Capacity))
	}
	if _, err := c.dir.CustomerByID(ctx, req.CustomerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return none, invalid("customer_id", "customer not found")
		}
		return none, err
	}

	opening, err := parseSlotTime(rest.OpeningTime)
	if err != nil {
		return none, fmt.Errorf("booking: restaurant %d has malformed opening_time: %w", rest.ID, err)
	}
	closing, err := parseSlotTime(rest.ClosingTime)
	if err != nil {
		return none, fmt.Errorf("booking: restaurant %d has malformed closing_time: %w", rest.ID, err)
	}
	if slotTime.minutes() < opening.minutes() || slotTime.minutes() > closing.minutes() {
		return none, invalid("reservation_time",
			fmt.Sprintf("bookings are accepted between %s and %s", rest.OpeningTime, rest.ClosingTime))
	}

	now := c.now()
	at := day.Add(time.Duration(slotTime.minutes()) * time.Minute)
	if !at.After(now) {
		return none, invalid("reservation_date", "reservation must be in the future")
	}
	sameDay := day.Format("2006-01-02") == now.Format("2006-01-02")
	lead := c.cfg.FutureDayLeadTime
	if sameDay {
		lead = c.cfg.SameDayLeadTime
	}
	if at.Sub(now) < lead {
		return none, invalid("reservation_time",
			fmt.Sprintf("bookings require at least %s advance notice", lead))
	}
	advance := int(rest.AdvanceBookingDays)
	if advance == 0 {
		advance = c.cfg.MaxAdvanceDays
	}
	if day.After(truncateToDay(now).AddDate(0, 0, advance)) {
		return none, invalid("reservation_date",
			fmt.Sprintf("bookings are accepted at most %d days in advance", advance))
	}

	return model.Slot{TableID: req.TableID, Date: day.Format("2006-01-02"), Time: slotTime.String()}, nil
}

// slotTime is a wall-clock time of day with minute precision.
type slotTime struct {
	hour, minute int
}

func (t slotTime) minutes() int { return t.hour*60 + t.minute }

func (t slotTime) String() string {
	return fmt.Sprintf("%02d:%02d:00", t.hour, t.minute)
}

// parseSlotTime accepts HH:MM or HH:MM:SS and rejects any non-zero
// seconds: slots are minute-aligned by definition.
func parseSlotTime(s string) (slotTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return slotTime{}, errors.New("must be a time in HH:MM form")
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return slotTime{}, errors.New("must be a time in HH:MM form")
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return slotTime{}, errors.New("must be a time in HH:MM form")
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil {
			return slotTime{}, errors.New("must be a time in HH:MM form")
		}
		if sec != 0 {
			return slotTime{}, errors.New("must not carry seconds")
		}
	}
	return slotTime{hour: hour, minute: minute}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
