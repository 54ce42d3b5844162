package main // Entry point package

import (
	"context" // Context for the background sweeper
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/cinema-seat-coordinator/internal/config"
	"github.com/iliyamo/cinema-seat-coordinator/internal/database"
	"github.com/iliyamo/cinema-seat-coordinator/internal/handler"
	"github.com/iliyamo/cinema-seat-coordinator/internal/hub"
	"github.com/iliyamo/cinema-seat-coordinator/internal/lock"
	"github.com/iliyamo/cinema-seat-coordinator/internal/middleware"
	"github.com/iliyamo/cinema-seat-coordinator/internal/queue"
	"github.com/iliyamo/cinema-seat-coordinator/internal/repository"
	"github.com/iliyamo/cinema-seat-coordinator/internal/router"
	"github.com/iliyamo/cinema-seat-coordinator/internal/schedule"
	queue_publisher "github.com/iliyamo/cinema-seat-coordinator/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	showings := repository.NewShowingRepo(db)
	bookings := repository.NewBookingRepo(db)

	// The hub fans seat events out to websocket viewers; the coordinator
	// owns the seat lock table and drives broadcasts, so each one needs a
	// reference to the other.  Hub first, handler wired below.
	h := hub.NewHub(cfg.WSSendBuffer)
	table := lock.NewTable()
	coord := lock.NewCoordinator(table, bookings, h, cfg.HoldTTL)
	coord.SetPublisher(queue_publisher.NewFromEnv())
	h.SetDisconnectHandler(func(sessionID string) {
		coord.ReleaseSession(context.Background(), sessionID)
	})

	// Background sweeper reclaims expired holds and holds whose session
	// vanished without a clean disconnect.
	sweeper := lock.NewSweeper(table, h, h.Alive, cfg.SweepInterval)
	sweeper.SetPublisher(queue_publisher.NewFromEnv())
	go sweeper.Run(context.Background())

	// Audit consumer drains the released-seats queue into a log file.
	go queue.StartReleaseConsumer()

	detector := schedule.NewDetector(showings)

	e := echo.New()
	router.RegisterRoutes(e)

	var limiter echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	} else {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	router.RegisterSeatmap(e,
		handler.NewSeatmapHandler(h, coord, showings, bookings, cfg.WSReadLimit),
		handler.NewSeatStateHandler(coord, showings, bookings),
		limiter)
	router.RegisterSchedule(e, handler.NewScheduleHandler(showings, detector), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
