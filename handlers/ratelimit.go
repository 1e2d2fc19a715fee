package handlers

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"

	"booking-api/errors"
	"booking-api/middleware"
	"booking-api/ratelimit"
)

// CheckRateLimit is the callable form of the limiter: the client names an
// endpoint class and gets either the remaining quota or a structured
// resource-exhausted answer with the retry delay.
func (h *Handler) CheckRateLimit(c *fiber.Ctx) error {
	type checkRequest struct {
		EndpointClass string `json:"endpoint_class"`
	}

	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.RaiseBadRequestError(c, "cannot parse check parameters")
	}
	if req.EndpointClass == "" {
		return errors.RaiseBadRequestError(c, "endpoint_class is required")
	}

	identifier := ratelimit.Identifier(
		c.Get(fiber.HeaderXForwardedFor),
		c.IP(),
		middleware.UserId(c))

	decision, err := h.limiter.Check(c.UserContext(), identifier, req.EndpointClass)
	if stderrors.Is(err, ratelimit.ErrUnknownClass) {
		return errors.RaiseBadRequestError(c, "unknown endpoint class")
	}
	if err != nil {
		// Check already logged the failure with full context.
		return errors.RaiseInternalServerError(c, "rate limit check failed")
	}
	if !decision.Allowed {
		return errors.RaiseTooManyRequestsError(c, decision.RetryAfter)
	}

	return c.JSON(fiber.Map{
		"allowed":   true,
		"remaining": decision.Remaining,
		"reset_at":  decision.ResetAt,
	})
}
