package handlers

import (
	"github.com/gofiber/fiber/v2"

	"booking-api/errors"
	"booking-api/ledger"
	"booking-api/middleware"
)

func (h *Handler) CreateBooking(c *fiber.Ctx) error {
	type bookingRequest struct {
		TicketCount int `json:"ticket_count"`
	}

	req := bookingRequest{TicketCount: 1}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errors.RaiseBadRequestError(c, "incorrect input for booking parameters")
		}
	}
	if req.TicketCount < 1 {
		return errors.RaiseBadRequestError(c, "ticket count must be positive")
	}

	userId := middleware.UserId(c)
	if userId == "" {
		return errors.RaisePermissionsError(c, "authenticated user required")
	}

	booking, err := h.ledger.CreateBooking(c.UserContext(), ledger.CreateBookingInput{
		EventId:     c.Params("eventId"),
		UserId:      userId,
		TicketCount: req.TicketCount,
	})
	if err != nil {
		return h.raiseLedgerError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(booking)
}

func (h *Handler) GetBooking(c *fiber.Ctx) error {
	booking, err := h.ledger.GetBooking(c.UserContext(), c.Params("bookingId"))
	if err != nil {
		return h.raiseLedgerError(c, err)
	}

	if booking.UserId != middleware.UserId(c) && !middleware.IsAdmin(c) {
		return errors.RaisePermissionsError(c, "booking belongs to another user")
	}

	return c.JSON(booking)
}

// CheckIn is operator-only: the scanner at the door authenticates as admin.
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return errors.RaisePermissionsError(c, "only admin can perform this operation")
	}

	type checkInRequest struct {
		Method string `json:"method"`
	}
	req := checkInRequest{Method: "manual"}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return errors.RaiseBadRequestError(c, "incorrect input for check-in parameters")
		}
	}

	result, err := h.ledger.CheckIn(c.UserContext(), c.Params("bookingId"), middleware.UserId(c), req.Method)
	if err != nil {
		return h.raiseLedgerError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":             "success",
		"already_checked_in": result.AlreadyCheckedIn,
		"data":               result.Booking,
	})
}

func (h *Handler) CancelBooking(c *fiber.Ctx) error {
	booking, err := h.ledger.GetBooking(c.UserContext(), c.Params("bookingId"))
	if err != nil {
		return h.raiseLedgerError(c, err)
	}
	if booking.UserId != middleware.UserId(c) && !middleware.IsAdmin(c) {
		return errors.RaisePermissionsError(c, "booking belongs to another user")
	}

	result, err := h.ledger.Cancel(c.UserContext(), booking.Id)
	if err != nil {
		return h.raiseLedgerError(c, err)
	}

	return c.JSON(fiber.Map{"status": "success", "data": result.Booking})
}
