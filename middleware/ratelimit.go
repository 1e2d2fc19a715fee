package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"booking-api/errors"
	"booking-api/ratelimit"
)

// RateLimit checks the request against the limiter for the given endpoint
// class before letting it through. Allowed requests get the remaining quota
// and window reset instant as headers; denied ones get 429 with Retry-After.
// A limiter failure is a plain 500: it means neither allow nor deny.
func RateLimit(limiter *ratelimit.Limiter, endpointClass string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := ratelimit.Identifier(
			c.Get(fiber.HeaderXForwardedFor),
			c.IP(),
			UserId(c))

		decision, err := limiter.Check(c.UserContext(), identifier, endpointClass)
		if err != nil {
			return errors.RaiseInternalServerError(c, "rate limit check failed")
		}
		if !decision.Allowed {
			return errors.RaiseTooManyRequestsError(c, decision.RetryAfter)
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt, 10))
		return c.Next()
	}
}
