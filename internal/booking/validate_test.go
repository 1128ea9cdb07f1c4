package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

// fakeDirectory serves a fixed restaurant/table/customer set.
type fakeDirectory struct {
	restaurants map[uint64]*model.Restaurant
	tables      map[uint64]*model.Table
	customers   map[uint64]*model.Customer
	err         error // infrastructure failure, returned from every lookup
}

func (d *fakeDirectory) RestaurantByID(_ context.Context, id uint64) (*model.Restaurant, error) {
	if d.err != nil {
		return nil, d.err
	}
	if r, ok := d.restaurants[id]; ok {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (d *fakeDirectory) TableByID(_ context.Context, id uint64) (*model.Table, error) {
	if d.err != nil {
		return nil, d.err
	}
	if tb, ok := d.tables[id]; ok {
		return tb, nil
	}
	return nil, repository.ErrNotFound
}

func (d *fakeDirectory) CustomerByID(_ context.Context, id uint64) (*model.Customer, error) {
	if d.err != nil {
		return nil, d.err
	}
	if c, ok := d.customers[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		restaurants: map[uint64]*model.Restaurant{
			1: {ID: 1, Name: "Trattoria", OpeningTime: "10:00:00", ClosingTime: "22:00:00", AdvanceBookingDays: 90, IsActive: true},
			2: {ID: 2, Name: "Closed Doors", OpeningTime: "10:00:00", ClosingTime: "22:00:00", AdvanceBookingDays: 90, IsActive: false},
		},
		tables: map[uint64]*model.Table{
			7:  {ID: 7, RestaurantID: 1, Number: "T7", Capacity: 4, IsActive: true},
			8:  {ID: 8, RestaurantID: 1, Number: "T8", Capacity: 4, IsActive: false},
			20: {ID: 20, RestaurantID: 2, Number: "X1", Capacity: 4, IsActive: true},
		},
		customers: map[uint64]*model.Customer{
			5: {ID: 5, FirstName: "Ada", LastName: "Smith", Email: "ada@example.com"},
		},
	}
}

// testNow is the fixed clock every validation test runs under.
var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testCoordinator(dir Directory) *Coordinator {
	cfg := config.BookingConfig{
		LockTTL:           30 * time.Second,
		PendingTimeout:    15 * time.Minute,
		SlotInterval:      15 * time.Minute,
		MaxPartySize:      12,
		SameDayLeadTime:   2 * time.Hour,
		FutureDayLeadTime: 30 * time.Minute,
		MaxAdvanceDays:    90,
		StatementTimeout:  5 * time.Second,
	}
	c := NewCoordinator(cfg, nil, nil, dir, nil, nil, nil)
	c.now = func() time.Time { return testNow }
	return c
}

func validRequest() Request {
	return Request{
		RestaurantID: 1,
		TableID:      7,
		CustomerID:   5,
		Date:         "2026-09-15",
		Time:         "19:00",
		PartySize:    2,
	}
}

func TestValidateAcceptsWellFormedRequest(t *testing.T) {
	c := testCoordinator(testDirectory())
	req := validRequest()
	slot, err := c.validate(context.Background(), &req)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := model.Slot{TableID: 7, Date: "2026-09-15", Time: "19:00:00"}
	if slot != want {
		t.Fatalf("slot = %+v, want %+v", slot, want)
	}
}

func TestValidateNormalisesSeconds(t *testing.T) {
	c := testCoordinator(testDirectory())
	req := validRequest()
	req.Time = "19:15:00"
	slot, err := c.validate(context.Background(), &req)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if slot.Time != "19:15:00" {
		t.Fatalf("slot time = %q, want 19:15:00", slot.Time)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		field  string
	}{
		{"missing restaurant", func(r *Request) { r.RestaurantID = 0 }, "restaurant_id"},
		{"missing table", func(r *Request) { r.TableID = 0 }, "table_id"},
		{"missing customer", func(r *Request) { r.CustomerID = 0 }, "customer_id"},
		{"zero party", func(r *Request) { r.PartySize = 0 }, "party_size"},
		{"party above global cap", func(r *Request) { r.PartySize = 13 }, "party_size"},
		{"party above table capacity", func(r *Request) { r.PartySize = 5 }, "party_size"},
		{"malformed date", func(r *Request) { r.Date = "15-09-2026" }, "reservation_date"},
		{"malformed time", func(r *Request) { r.Time = "7pm" }, "reservation_time"},
		{"nonzero seconds", func(r *Request) { r.Time = "19:00:30" }, "reservation_time"},
		{"off-grid slot", func(r *Request) { r.Time = "19:05" }, "reservation_time"},
		{"unknown restaurant", func(r *Request) { r.RestaurantID = 99 }, "restaurant_id"},
		{"inactive restaurant", func(r *Request) { r.RestaurantID = 2; r.TableID = 20 }, "restaurant_id"},
		{"unknown table", func(r *Request) { r.TableID = 99 }, "table_id"},
		{"inactive table", func(r *Request) { r.TableID = 8 }, "table_id"},
		{"foreign table", func(r *Request) { r.TableID = 20 }, "table_id"},
		{"unknown customer", func(r *Request) { r.CustomerID = 99 }, "customer_id"},
		{"before opening", func(r *Request) { r.Time = "09:45" }, "reservation_time"},
		{"after closing", func(r *Request) { r.Time = "22:15" }, "reservation_time"},
		{"in the past", func(r *Request) { r.Date = "2026-08-30" }, "reservation_date"},
		{"same-day short notice", func(r *Request) { r.Date = "2026-09-01"; r.Time = "13:00" }, "reservation_time"},
		{"beyond advance window", func(r *Request) { r.Date = "2026-12-15" }, "reservation_date"},
	}
	c := testCoordinator(testDirectory())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := c.validate(context.Background(), &req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestValidateSameDayWithEnoughNotice(t *testing.T) {
	c := testCoordinator(testDirectory())
	req := validRequest()
	req.Date = "2026-09-01"
	req.Time = "19:00" // seven hours out, well past the two-hour lead
	if _, err := c.validate(context.Background(), &req); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateAdvanceWindowBoundary(t *testing.T) {
	c := testCoordinator(testDirectory())
	req := validRequest()
	req.Date = "2026-11-30" // exactly 90 days from the fixed clock's date
	if _, err := c.validate(context.Background(), &req); err != nil {
		t.Fatalf("day 90 rejected: %v", err)
	}
	req.Date = "2026-12-01" // day 91
	if _, err := c.validate(context.Background(), &req); err == nil {
		t.Fatal("day 91 accepted")
	}
}

func TestValidatePropagatesLookupFailure(t *testing.T) {
	dir := testDirectory()
	dir.err = errors.New("connection reset")
	c := testCoordinator(dir)
	req := validRequest()
	_, err := c.validate(context.Background(), &req)
	if err == nil {
		t.Fatal("infrastructure failure swallowed")
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("infrastructure failure reported as validation error: %v", err)
	}
}
