package main

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"booking-api/config"
	"booking-api/handlers"
	"booking-api/ledger"
	"booking-api/maintenance"
	"booking-api/ratelimit"
	"booking-api/router"
	"booking-api/store"
)

// newStore picks the storage backend. The "memory" connection string runs
// everything in process, which is enough for local development.
func newStore(ctx context.Context, connString string) (store.Store, error) {
	if connString == "memory" {
		return store.NewMemory(), nil
	}
	return store.NewMongo(ctx, connString, "booking-service")
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	connString, err := config.GetSecret("MONGODB_CONNSTRING")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot find connection string for DB in the environment")
	}

	ctx := context.Background()
	st, err := newStore(ctx, connString)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot initialize store")
	}

	limiter := ratelimit.NewLimiter(st, config.RateLimits, log)
	bookingLedger := ledger.New(st, log)
	sweeper := maintenance.NewSweeper(st, log)

	go sweeper.Run(ctx, 24*time.Hour, time.Hour)

	app := fiber.New()
	router.SetupRoutes(app, handlers.New(st, bookingLedger, limiter, log), limiter)

	if err := app.Listen(":80"); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
