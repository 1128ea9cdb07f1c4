package main // Entry point package

import (
	"context" // Context for the background workers
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/restaurant-reservation/internal/availability" // Slot availability cache
	"github.com/iliyamo/restaurant-reservation/internal/booking"      // Booking coordinator
	"github.com/iliyamo/restaurant-reservation/internal/config"       // Internal config loader
	"github.com/iliyamo/restaurant-reservation/internal/database"     // MySQL connection helper
	"github.com/iliyamo/restaurant-reservation/internal/expiry"       // Pending-reservation expiry
	"github.com/iliyamo/restaurant-reservation/internal/handler"      // HTTP handlers
	"github.com/iliyamo/restaurant-reservation/internal/lock"         // Distributed slot lock
	"github.com/iliyamo/restaurant-reservation/internal/middleware"   // Rate limiting middleware
	"github.com/iliyamo/restaurant-reservation/internal/queue"        // RabbitMQ events
	"github.com/iliyamo/restaurant-reservation/internal/repository"   // Data access layer
	"github.com/iliyamo/restaurant-reservation/internal/router"       // Route registration
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load()              // Core config (env, port, database)
	bcfg := config.LoadBookingConfig() // Booking policy knobs
	rlcfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the slot lock, so the server refuses to start without it:
	// booking without the lock would race on every popular slot.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: unavailable")
	}
	defer rdb.Close()

	reservations := repository.NewReservationRepo(db) // Reservation persistence
	directory := repository.NewDirectory(db)          // Restaurant/table/customer lookups

	locker := lock.NewManager(rdb, bcfg.LockTTL, bcfg.LockMaxRetries, bcfg.LockRetryBase)
	cache := availability.New(rdb, reservations, bcfg.AvailabilityTTL)
	sched := expiry.NewScheduler(rdb)
	events := queue.NewPublisher(queue.BrokerURL())

	coord := booking.NewCoordinator(bcfg, locker, reservations, directory, cache, sched, events)

	// Expiry worker flips lapsed pending reservations to expired and
	// frees their slots.  It runs for the lifetime of the process.
	worker := expiry.NewWorker(sched, reservations, cache, events, bcfg.ExpiryPollInterval, bcfg.SweepInterval)
	go func() {
		if err := worker.Run(context.Background()); err != nil {
			log.Printf("expiry worker stopped: %v", err)
		}
	}()

	// Events consumer writes the reservation audit trail.  It reconnects
	// on its own, so a failed start is logged rather than fatal.
	go func() {
		if err := queue.StartEventsConsumer(); err != nil {
			log.Printf("events consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	h := handler.NewReservationHandler(coord, reservations, cache)
	router.Register(e, h, middleware.NewTokenBucket(rlcfg, rdb))

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
