package model

import "time"

// RateLimitRecord tracks one (endpoint class, identifier) pair. Timestamps
// are epoch milliseconds in arrival order and are pruned lazily on each
// check, so the slice never grows past the class's MaxRequests.
type RateLimitRecord struct {
	Id                string  `json:"_id" bson:"_id"`
	RequestTimestamps []int64 `json:"request_timestamps" bson:"request_timestamps"`
	// BlockedUntil is epoch milliseconds; zero means not blocked.
	BlockedUntil int64 `json:"blocked_until,omitempty" bson:"blocked_until,omitempty"`
	// Violations only ever grows. It counts limit hits, not blocked retries.
	Violations int       `json:"violations" bson:"violations"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// BlockedAt reports whether the record is blocked at the given instant.
func (r *RateLimitRecord) BlockedAt(nowMs int64) bool {
	return r.BlockedUntil > nowMs
}

// Violator is one offending identifier inside an Alert.
type Violator struct {
	EndpointClass string `json:"endpoint_class" bson:"endpoint_class"`
	Identifier    string `json:"identifier" bson:"identifier"`
	Violations    int    `json:"violations" bson:"violations"`
}

// Alert is written by the hourly sweep, one per run that found violators.
type Alert struct {
	Id        string     `json:"_id" bson:"_id"`
	Violators []Violator `json:"violators" bson:"violators"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}
