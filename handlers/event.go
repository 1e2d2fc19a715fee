package handlers

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"booking-api/errors"
	"booking-api/middleware"
	"booking-api/model"
	"booking-api/store"
)

// Event endpoints are thin data-access wrappers; the ledger alone mutates
// counters, these handlers never touch them.

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return errors.RaisePermissionsError(c, "only admin can perform this operation")
	}

	newEvent := new(model.Event)
	if jsonErr := c.BodyParser(newEvent); jsonErr != nil {
		return errors.RaiseBadRequestError(c, "unacceptable event parameters")
	}
	newEvent.Name = strings.TrimSpace(newEvent.Name)

	if newEvent.Name == "" {
		return errors.RaiseBadRequestError(c, "event name must not be empty")
	}
	if newEvent.Capacity < 1 {
		return errors.RaiseBadRequestError(c, "event capacity must be positive")
	}
	if newEvent.Status == "" {
		newEvent.Status = model.EventDraft
	}

	newEvent.Id = uuid.NewString()
	newEvent.RegisteredCount = 0
	newEvent.WaitlistCount = 0
	newEvent.IsDeleted = false
	newEvent.CreatedAt = time.Now()
	newEvent.UpdatedAt = newEvent.CreatedAt

	if err := h.store.Set(c.UserContext(), store.Events, newEvent.Id, newEvent); err != nil {
		h.log.Error().Err(err).Msg("event write failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}

	return c.Status(fiber.StatusCreated).JSON(newEvent)
}

func (h *Handler) GetEvents(c *fiber.Ctx) error {
	events := []model.Event{}
	err := h.store.Scan(c.UserContext(), store.Events, func(id string, decode func(dest interface{}) error) error {
		var event model.Event
		if err := decode(&event); err != nil {
			return err
		}
		if event.IsDeleted {
			return nil
		}
		if event.Status != model.EventPublished && !middleware.IsAdmin(c) {
			return nil
		}
		events = append(events, event)
		return nil
	})
	if err != nil {
		h.log.Error().Err(err).Msg("event scan failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}

	return c.JSON(events)
}

func (h *Handler) GetEvent(c *fiber.Ctx) error {
	var event model.Event
	err := h.store.Get(c.UserContext(), store.Events, c.Params("eventId"), &event)
	if stderrors.Is(err, store.ErrNoDocument) {
		return errors.RaiseNotFoundError(c, "event not found")
	}
	if err != nil {
		h.log.Error().Err(err).Msg("event read failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}
	if event.IsDeleted {
		return errors.RaiseNotFoundError(c, "event not found")
	}

	return c.JSON(event)
}

// DeleteEvent soft-deletes: the flag hides the event from every read path
// while bookings keep their reference.
func (h *Handler) DeleteEvent(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return errors.RaisePermissionsError(c, "only admin can perform this operation")
	}

	var event model.Event
	err := h.store.Get(c.UserContext(), store.Events, c.Params("eventId"), &event)
	if stderrors.Is(err, store.ErrNoDocument) {
		return errors.RaiseNotFoundError(c, "event not found")
	}
	if err != nil {
		h.log.Error().Err(err).Msg("event read failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}

	event.IsDeleted = true
	event.UpdatedAt = time.Now()
	if err := h.store.Set(c.UserContext(), store.Events, event.Id, event); err != nil {
		h.log.Error().Err(err).Msg("event write failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}

	return c.JSON(fiber.Map{"status": "success", "message": "event deleted", "data": event.Id})
}
