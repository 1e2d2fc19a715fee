// Package ratelimit implements a sliding-window rate limiter with
// progressive blocking. All state lives in the store, keyed by
// "<endpointClass>:<identifier>", so every instance of the service enforces
// the same limits.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"booking-api/config"
	"booking-api/model"
	"booking-api/store"
)

// ErrUnknownClass means the endpoint class has no configured policy.
var ErrUnknownClass = errors.New("unknown endpoint class")

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed bool
	// RetryAfter is whole seconds until the caller may try again. Set only
	// on deny, always at least 1.
	RetryAfter int
	// Remaining is how many requests are left in the window. Set on allow.
	Remaining int
	// ResetAt is the epoch-millisecond instant when the window fully clears.
	ResetAt int64
}

type Limiter struct {
	store   store.Store
	configs map[string]config.RateLimitConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewLimiter(st store.Store, configs map[string]config.RateLimitConfig, log zerolog.Logger) *Limiter {
	return &Limiter{
		store:   st,
		configs: configs,
		log:     log,
		now:     time.Now,
	}
}

// RecordId is the persisted key for one (endpoint class, identifier) pair.
func RecordId(endpointClass, identifier string) string {
	return endpointClass + ":" + identifier
}

// Check decides whether the identifier may make another request in the given
// endpoint class.
//
// The whole read-decide-write sequence runs as one store transaction: two
// concurrent requests from the same identifier must not both observe
// count < max and both be admitted past the limit. A transaction failure is
// returned as an error and means neither allow nor deny.
func (l *Limiter) Check(ctx context.Context, identifier, endpointClass string) (Decision, error) {
	cfg, ok := l.configs[endpointClass]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnknownClass, endpointClass)
	}

	nowMs := l.now().UnixMilli()
	windowMs := cfg.Window.Milliseconds()

	var decision Decision
	txErr := l.store.RunTransaction(ctx, func(tx store.Txn) error {
		recordId := RecordId(endpointClass, identifier)

		record := model.RateLimitRecord{Id: recordId}
		if err := tx.Get(store.RateLimits, recordId, &record); err != nil && !errors.Is(err, store.ErrNoDocument) {
			return err
		}

		// An active block already counted as a violation when it was set;
		// deny without touching the record.
		if record.BlockedAt(nowMs) {
			decision = Decision{RetryAfter: ceilSeconds(record.BlockedUntil - nowMs)}
			return nil
		}

		// Exact sliding window: keep only timestamps younger than the
		// window. Pruning happens here, on read, never in the background.
		inWindow := record.RequestTimestamps[:0]
		for _, ts := range record.RequestTimestamps {
			if ts > nowMs-windowMs {
				inWindow = append(inWindow, ts)
			}
		}

		if len(inWindow) >= cfg.MaxRequests {
			record.RequestTimestamps = inWindow
			record.BlockedUntil = nowMs + cfg.BlockDuration.Milliseconds()
			record.Violations++
			record.UpdatedAt = time.UnixMilli(nowMs)
			if err := tx.Set(store.RateLimits, recordId, record); err != nil {
				return err
			}
			decision = Decision{RetryAfter: ceilSeconds(cfg.BlockDuration.Milliseconds())}
			return nil
		}

		record.RequestTimestamps = append(inWindow, nowMs)
		record.BlockedUntil = 0
		record.UpdatedAt = time.UnixMilli(nowMs)
		if err := tx.Set(store.RateLimits, recordId, record); err != nil {
			return err
		}
		// The request just appended is the newest, so the window fully
		// clears one window length from now.
		decision = Decision{
			Allowed:   true,
			Remaining: cfg.MaxRequests - len(record.RequestTimestamps),
			ResetAt:   nowMs + windowMs,
		}
		return nil
	})
	if txErr != nil {
		l.log.Error().
			Err(txErr).
			Str("identifier", identifier).
			Str("endpoint_class", endpointClass).
			Msg("rate limit transaction failed")
		return Decision{}, fmt.Errorf("rate limit transaction: %w", txErr)
	}

	if !decision.Allowed {
		l.log.Warn().
			Str("identifier", identifier).
			Str("endpoint_class", endpointClass).
			Int("retry_after", decision.RetryAfter).
			Msg("rate limit exceeded")
	}
	return decision, nil
}

func ceilSeconds(ms int64) int {
	secs := (ms + 999) / 1000
	if secs < 1 {
		secs = 1
	}
	return int(secs)
}
