package errors

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RaiseError(context *fiber.Ctx, status int, message string, data string) error {
	return context.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    data})
}

func RaisePermissionsError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusUnauthorized, "lack of permissions", data)
}

func RaiseInternalServerError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusInternalServerError, "internal error", data)
}

func RaiseBadRequestError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusBadRequest, "bad request", data)
}

func RaiseNotFoundError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusNotFound, "resource not found", data)
}

func RaiseConflictError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusConflict, "conflict", data)
}

// RaiseTooManyRequestsError sets the Retry-After header and echoes the delay
// in the body so clients get the retry hint either way.
func RaiseTooManyRequestsError(context *fiber.Ctx, retryAfterSeconds int) error {
	context.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	return context.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"status":      "error",
		"message":     "too many requests",
		"retry_after": retryAfterSeconds})
}
