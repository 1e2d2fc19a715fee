package model

import "time"

// CheckInLog is append-only. Exactly one record exists for every booking that
// ever reached checked_in; records are never updated or deleted.
type CheckInLog struct {
	Id          string    `json:"_id" bson:"_id"`
	BookingId   string    `json:"booking_id" bson:"booking_id"`
	EventId     string    `json:"event_id" bson:"event_id"`
	UserId      string    `json:"user_id" bson:"user_id"`
	CheckedInBy string    `json:"checked_in_by" bson:"checked_in_by"`
	Method      string    `json:"method" bson:"method"`
	CheckedInAt time.Time `json:"checked_in_at" bson:"checked_in_at"`
}
