package handlers

import (
	stderrors "errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"booking-api/errors"
	"booking-api/ledger"
	"booking-api/ratelimit"
	"booking-api/store"
)

// Handler carries the capabilities every endpoint needs. All of them are
// passed in at construction; there is no package-level state.
type Handler struct {
	store   store.Store
	ledger  *ledger.Ledger
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

func New(st store.Store, lg *ledger.Ledger, lim *ratelimit.Limiter, log zerolog.Logger) *Handler {
	return &Handler{store: st, ledger: lg, limiter: lim, log: log}
}

// raiseLedgerError maps ledger outcomes onto HTTP statuses. Expected
// business outcomes pass through with their message; anything else is logged
// and answered opaquely.
func (h *Handler) raiseLedgerError(c *fiber.Ctx, err error) error {
	switch {
	case stderrors.Is(err, ledger.ErrEventNotFound),
		stderrors.Is(err, ledger.ErrBookingNotFound):
		return errors.RaiseNotFoundError(c, err.Error())
	case stderrors.Is(err, ledger.ErrDuplicateBooking),
		stderrors.Is(err, ledger.ErrEventNotPublished),
		stderrors.Is(err, ledger.ErrBookingCancelled),
		stderrors.Is(err, ledger.ErrBookingNotActive),
		stderrors.Is(err, ledger.ErrNotConfirmed):
		return errors.RaiseConflictError(c, err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.Path()).Msg("ledger operation failed")
		return errors.RaiseInternalServerError(c, "storage failure")
	}
}
