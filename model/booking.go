package model

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingWaitlist  BookingStatus = "waitlist"
	BookingCancelled BookingStatus = "cancelled"
	BookingCheckedIn BookingStatus = "checked_in"
	BookingExpired   BookingStatus = "expired"
	BookingNoShow    BookingStatus = "no_show"
)

type Booking struct {
	Id               string        `json:"_id" bson:"_id"`
	EventId          string        `json:"event_id" bson:"event_id"`
	UserId           string        `json:"user_id" bson:"user_id"`
	TicketCount      int           `json:"ticket_count" bson:"ticket_count"`
	TicketId         string        `json:"ticket_id" bson:"ticket_id"`
	Status           BookingStatus `json:"status" bson:"status"`
	IsWaitlist       bool          `json:"is_waitlist" bson:"is_waitlist"`
	WaitlistPosition int           `json:"waitlist_position,omitempty" bson:"waitlist_position,omitempty"`
	IsDeleted        bool          `json:"is_deleted" bson:"is_deleted"`
	BookedAt         time.Time     `json:"booked_at" bson:"booked_at"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
	CheckedInAt      time.Time     `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	CheckedInBy      string        `json:"checked_in_by,omitempty" bson:"checked_in_by,omitempty"`
}

// Active reports whether the booking still holds a seat or a waitlist slot.
// At most one active booking may exist per (user, event), which CreateBooking
// enforces through the deterministic booking id.
func (b *Booking) Active() bool {
	return b.Status == BookingConfirmed || b.Status == BookingWaitlist
}
