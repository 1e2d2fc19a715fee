package model

import "time"

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

type Event struct {
	Id              string      `json:"_id" bson:"_id"`
	Name            string      `json:"name" bson:"name"`
	Description     string      `json:"description" bson:"description"`
	Capacity        int         `json:"capacity" bson:"capacity"`
	RegisteredCount int         `json:"registered_count" bson:"registered_count"`
	WaitlistCount   int         `json:"waitlist_count" bson:"waitlist_count"`
	Status          EventStatus `json:"status" bson:"status"`
	IsDeleted       bool        `json:"is_deleted" bson:"is_deleted"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
}

// HasCapacity reports whether another confirmed booking fits. Only valid when
// read inside a ledger transaction, otherwise the answer may be stale.
func (e *Event) HasCapacity() bool {
	return e.RegisteredCount < e.Capacity
}
