// Package ledger owns all mutation of event counters and booking lifecycle
// state. Every operation runs as a single store transaction so capacity,
// waitlist ordering, and check-in state stay consistent under concurrent
// requests.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"booking-api/model"
	"booking-api/store"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrDuplicateBooking  = errors.New("booking already exists")
	ErrEventNotPublished = errors.New("event is not open for booking")
	ErrBookingCancelled  = errors.New("booking is cancelled")
	ErrBookingNotActive  = errors.New("booking is not active")
	ErrNotConfirmed      = errors.New("booking is not confirmed")
)

// bookingNamespace seeds the deterministic booking id so that retries of the
// same (event, user) intent land on the same document.
var bookingNamespace = uuid.MustParse("b49f5a2e-3e11-4d94-9f0e-54c6f2d8a77b")

// BookingId returns the deterministic id for a (event, user) booking intent.
func BookingId(eventId, userId string) string {
	return uuid.NewSHA1(bookingNamespace, []byte(eventId+"/"+userId)).String()
}

type Ledger struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func New(st store.Store, log zerolog.Logger) *Ledger {
	return &Ledger{store: st, log: log, now: time.Now}
}

type CreateBookingInput struct {
	EventId     string
	UserId      string
	TicketCount int
	// BookingId overrides the deterministic id when the caller supplies its
	// own idempotency key.
	BookingId string
	// TicketId is generated when empty.
	TicketId string
}

// CreateBooking books a seat or joins the waitlist, atomically with the
// event counter update. Reading registered_count and deciding
// confirmed-vs-waitlist happens in the same transaction as the increment,
// otherwise two concurrent creates against the last seat would both confirm.
func (l *Ledger) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	bookingId := in.BookingId
	if bookingId == "" {
		bookingId = BookingId(in.EventId, in.UserId)
	}
	now := l.now()

	var created model.Booking
	txErr := l.store.RunTransaction(ctx, func(tx store.Txn) error {
		var existing model.Booking
		err := tx.Get(store.Bookings, bookingId, &existing)
		if err == nil {
			return ErrDuplicateBooking
		}
		if !errors.Is(err, store.ErrNoDocument) {
			return err
		}

		var event model.Event
		err = tx.Get(store.Events, in.EventId, &event)
		if errors.Is(err, store.ErrNoDocument) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if event.IsDeleted {
			return ErrEventNotFound
		}
		if event.Status != model.EventPublished {
			return ErrEventNotPublished
		}

		ticketId := in.TicketId
		if ticketId == "" {
			ticketId = NewTicketCode(now)
		}

		created = model.Booking{
			Id:          bookingId,
			EventId:     in.EventId,
			UserId:      in.UserId,
			TicketCount: in.TicketCount,
			TicketId:    ticketId,
			BookedAt:    now,
			UpdatedAt:   now,
		}

		if event.HasCapacity() {
			created.Status = model.BookingConfirmed
			event.RegisteredCount++
		} else {
			created.Status = model.BookingWaitlist
			created.IsWaitlist = true
			created.WaitlistPosition = event.WaitlistCount + 1
			event.WaitlistCount++
		}
		event.UpdatedAt = now

		if err := tx.Set(store.Bookings, bookingId, created); err != nil {
			return err
		}
		return tx.Set(store.Events, in.EventId, event)
	})
	if txErr != nil {
		return nil, txErr
	}

	l.log.Info().
		Str("booking_id", created.Id).
		Str("event_id", created.EventId).
		Str("status", string(created.Status)).
		Int("waitlist_position", created.WaitlistPosition).
		Msg("booking created")
	return &created, nil
}

type CheckInResult struct {
	Booking *model.Booking
	// AlreadyCheckedIn means the booking was checked in before this call;
	// nothing was mutated and no log record was written.
	AlreadyCheckedIn bool
}

// CheckIn marks a confirmed booking checked in and appends exactly one
// CheckInLog record in the same transaction, so a log record without the
// matching status transition can never exist, even with two scanners racing
// on the same booking.
func (l *Ledger) CheckIn(ctx context.Context, bookingId, checkedInBy, method string) (*CheckInResult, error) {
	now := l.now()

	var result CheckInResult
	txErr := l.store.RunTransaction(ctx, func(tx store.Txn) error {
		var booking model.Booking
		err := tx.Get(store.Bookings, bookingId, &booking)
		if errors.Is(err, store.ErrNoDocument) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if booking.IsDeleted {
			return ErrBookingNotFound
		}

		switch booking.Status {
		case model.BookingCancelled:
			return ErrBookingCancelled
		case model.BookingCheckedIn:
			result = CheckInResult{Booking: &booking, AlreadyCheckedIn: true}
			return nil
		case model.BookingConfirmed:
			// falls through to the transition below
		default:
			return ErrNotConfirmed
		}

		booking.Status = model.BookingCheckedIn
		booking.CheckedInAt = now
		booking.CheckedInBy = checkedInBy
		booking.UpdatedAt = now
		if err := tx.Set(store.Bookings, bookingId, booking); err != nil {
			return err
		}

		logRecord := model.CheckInLog{
			Id:          uuid.NewString(),
			BookingId:   booking.Id,
			EventId:     booking.EventId,
			UserId:      booking.UserId,
			CheckedInBy: checkedInBy,
			Method:      method,
			CheckedInAt: now,
		}
		if err := tx.Set(store.CheckInLogs, logRecord.Id, logRecord); err != nil {
			return err
		}

		result = CheckInResult{Booking: &booking}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if !result.AlreadyCheckedIn {
		l.log.Info().
			Str("booking_id", bookingId).
			Str("checked_in_by", checkedInBy).
			Str("method", method).
			Msg("booking checked in")
	}
	return &result, nil
}

type CancelResult struct {
	Booking *model.Booking
	// Promoted is the waitlisted booking that took over the freed seat,
	// nil when the cancelled booking held no seat or the waitlist was empty.
	Promoted *model.Booking
}

// Cancel cancels a confirmed or waitlisted booking. The status change, the
// counter update, and the promotion of the earliest-positioned waitlisted
// booking all happen in one transaction, so the event counters can never go
// stale relative to the booking's true state.
func (l *Ledger) Cancel(ctx context.Context, bookingId string) (*CancelResult, error) {
	now := l.now()

	var result CancelResult
	txErr := l.store.RunTransaction(ctx, func(tx store.Txn) error {
		result = CancelResult{}

		var booking model.Booking
		err := tx.Get(store.Bookings, bookingId, &booking)
		if errors.Is(err, store.ErrNoDocument) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if booking.IsDeleted {
			return ErrBookingNotFound
		}
		if !booking.Active() {
			return ErrBookingNotActive
		}

		wasConfirmed := booking.Status == model.BookingConfirmed
		booking.Status = model.BookingCancelled
		booking.UpdatedAt = now
		if err := tx.Set(store.Bookings, bookingId, booking); err != nil {
			return err
		}
		result.Booking = &booking

		if !wasConfirmed {
			// A waitlist slot frees no seat; positions are never reused so
			// the counter stays put and ordering holds.
			return nil
		}

		var event model.Event
		err = tx.Get(store.Events, booking.EventId, &event)
		if errors.Is(err, store.ErrNoDocument) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}

		promoted, err := earliestWaitlisted(tx, booking.EventId)
		if err != nil {
			return err
		}
		if promoted == nil {
			event.RegisteredCount--
			event.UpdatedAt = now
			return tx.Set(store.Events, booking.EventId, event)
		}

		// The freed seat transfers to the promoted booking, so
		// registered_count is unchanged.
		promoted.Status = model.BookingConfirmed
		promoted.IsWaitlist = false
		promoted.WaitlistPosition = 0
		promoted.UpdatedAt = now
		if err := tx.Set(store.Bookings, promoted.Id, *promoted); err != nil {
			return err
		}
		event.UpdatedAt = now
		if err := tx.Set(store.Events, booking.EventId, event); err != nil {
			return err
		}
		result.Promoted = promoted
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	logEvent := l.log.Info().Str("booking_id", bookingId)
	if result.Promoted != nil {
		logEvent = logEvent.Str("promoted_booking_id", result.Promoted.Id)
	}
	logEvent.Msg("booking cancelled")
	return &result, nil
}

// GetBooking reads a booking outside any transaction.
func (l *Ledger) GetBooking(ctx context.Context, bookingId string) (*model.Booking, error) {
	var booking model.Booking
	err := l.store.Get(ctx, store.Bookings, bookingId, &booking)
	if errors.Is(err, store.ErrNoDocument) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking.IsDeleted {
		return nil, ErrBookingNotFound
	}
	return &booking, nil
}

// earliestWaitlisted returns the live waitlisted booking with the smallest
// position for the event, or nil when none exists.
func earliestWaitlisted(tx store.Txn, eventId string) (*model.Booking, error) {
	var best *model.Booking
	err := tx.Scan(store.Bookings, func(id string, decode func(dest interface{}) error) error {
		var candidate model.Booking
		if err := decode(&candidate); err != nil {
			return err
		}
		if candidate.EventId != eventId || candidate.IsDeleted || candidate.Status != model.BookingWaitlist {
			return nil
		}
		if best == nil || candidate.WaitlistPosition < best.WaitlistPosition {
			b := candidate
			best = &b
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}
