package router

import (
	"booking-api/config"
	"booking-api/handlers"
	"booking-api/middleware"
	"booking-api/ratelimit"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// SetupRoutes wires every endpoint. Authorize runs before RateLimit on
// protected routes so a bad credential answers 401 without rate-limit fields
// and an authenticated principal sharpens the limiter identifier.
func SetupRoutes(app *fiber.App, h *handlers.Handler, limiter *ratelimit.Limiter) {
	api := app.Group("/", logger.New())

	//Login: the strictest class, keyed by address only
	login := api.Group("/login", middleware.RateLimit(limiter, config.ClassAuth))
	login.Post("/", h.Login)

	//Rate limit self-check
	api.Post("/ratelimit/check", h.CheckRateLimit)

	//Event
	event := api.Group("/event")
	event.Get("/", middleware.RateLimit(limiter, config.ClassAPI), h.GetEvents)
	event.Get("/:eventId", middleware.RateLimit(limiter, config.ClassAPI), h.GetEvent)
	event.Post("/", middleware.Authorize(), middleware.RateLimit(limiter, config.ClassAPI), h.CreateEvent)
	event.Delete("/:eventId", middleware.Authorize(), middleware.RateLimit(limiter, config.ClassAPI), h.DeleteEvent)

	//Booking
	event.Post("/:eventId/booking",
		middleware.Authorize(),
		middleware.RateLimit(limiter, config.ClassBooking),
		h.CreateBooking)

	booking := api.Group("/booking", middleware.Authorize(), middleware.RateLimit(limiter, config.ClassBooking))
	booking.Get("/:bookingId", h.GetBooking)
	booking.Post("/:bookingId/checkin", h.CheckIn)
	booking.Patch("/:bookingId/cancel", h.CancelBooking)
}
