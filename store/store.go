// Package store provides the keyed-document storage capability the rest of
// the service is built on. Components receive a Store at construction time;
// nothing holds package-level collection handles.
package store

import (
	"context"
	"errors"
)

// Collection names.
const (
	Events          = "events"
	Bookings        = "bookings"
	CheckInLogs     = "checkin_logs"
	RateLimits      = "rate_limits"
	RateLimitAlerts = "rate_limit_alerts"
	Users           = "users"
)

// ErrNoDocument is returned by Get when no document exists at the key.
var ErrNoDocument = errors.New("no document at key")

// ErrStopScan stops a Scan early without error.
var ErrStopScan = errors.New("stop scan")

// Txn is the view of the store inside a transaction. All Sets and Deletes
// issued through a Txn apply together or not at all.
type Txn interface {
	Get(collection, id string, dest interface{}) error
	Set(collection, id string, value interface{}) error
	Delete(collection, id string) error
	// Scan visits every document in a collection within the transaction,
	// staged writes included. fn may return ErrStopScan to end early.
	Scan(collection string, fn func(id string, decode func(dest interface{}) error) error) error
}

// Store is a keyed-document store with serializable per-key transactions.
//
// RunTransaction runs fn against a transactional view. Concurrent
// transactions touching the same keys serialize: no two of them can both
// read a value and act on it before the other's writes land. Implementations
// retry internally on contention; when retries are exhausted the error
// surfaces to the caller and fn's writes are discarded. An error returned by
// fn aborts the transaction and propagates unchanged, which is how business
// outcomes (conflict, not found) travel out of a transaction body.
type Store interface {
	RunTransaction(ctx context.Context, fn func(tx Txn) error) error

	Get(ctx context.Context, collection, id string, dest interface{}) error
	Set(ctx context.Context, collection, id string, value interface{}) error
	Delete(ctx context.Context, collection, id string) error

	// Scan visits every document in a collection. The decode callback
	// unmarshals the current document; fn may return ErrStopScan to end the
	// scan early. Scans are not transactional.
	Scan(ctx context.Context, collection string, fn func(id string, decode func(dest interface{}) error) error) error
}
