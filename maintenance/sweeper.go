// Package maintenance runs the periodic sweeps over rate-limit records:
// eviction of stale records and alerting on repeat violators. Both sweeps
// are idempotent, so running one twice in a period is harmless.
package maintenance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"booking-api/model"
	"booking-api/store"
)

const (
	// ViolationThreshold is the violation count at which an identifier is
	// included in an alert.
	ViolationThreshold = 10
	// cleanupBatchSize bounds how many records one cleanup run deletes.
	cleanupBatchSize = 500
	// staleBlockAge is how long an expired block must be in the past before
	// its record becomes evictable.
	staleBlockAge = 24 * time.Hour
)

type Sweeper struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewSweeper(st store.Store, log zerolog.Logger) *Sweeper {
	return &Sweeper{store: st, log: log, now: time.Now}
}

// Run invokes the cleanup sweep and the violation sweep on their own
// tickers until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, cleanupEvery, alertEvery time.Duration) {
	cleanup := time.NewTicker(cleanupEvery)
	alert := time.NewTicker(alertEvery)
	defer cleanup.Stop()
	defer alert.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			if _, err := s.CleanupStaleRecords(ctx); err != nil {
				s.log.Error().Err(err).Msg("rate limit cleanup sweep failed")
			}
		case <-alert.C:
			if _, err := s.SweepViolations(ctx); err != nil {
				s.log.Error().Err(err).Msg("rate limit violation sweep failed")
			}
		}
	}
}

// CleanupStaleRecords deletes rate-limit records with no in-window requests
// whose block, if any, expired before the cutoff. Records still blocked, or
// blocked until recently, are kept so their violation history survives the
// alerting sweep. Returns how many records were deleted.
func (s *Sweeper) CleanupStaleRecords(ctx context.Context) (int, error) {
	cutoffMs := s.now().Add(-staleBlockAge).UnixMilli()

	var stale []string
	err := s.store.Scan(ctx, store.RateLimits, func(id string, decode func(dest interface{}) error) error {
		var record model.RateLimitRecord
		if err := decode(&record); err != nil {
			return err
		}
		if len(record.RequestTimestamps) > 0 {
			return nil
		}
		if record.BlockedUntil != 0 && record.BlockedUntil >= cutoffMs {
			return nil
		}
		stale = append(stale, id)
		if len(stale) >= cleanupBatchSize {
			return store.ErrStopScan
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range stale {
		if err := s.store.Delete(ctx, store.RateLimits, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		s.log.Info().Int("deleted", deleted).Msg("evicted stale rate limit records")
	}
	return deleted, nil
}

// SweepViolations collects every identifier at or above the violation
// threshold and writes one alert record summarizing the run. No record is
// written when no violator is found.
func (s *Sweeper) SweepViolations(ctx context.Context) (*model.Alert, error) {
	var violators []model.Violator
	err := s.store.Scan(ctx, store.RateLimits, func(id string, decode func(dest interface{}) error) error {
		var record model.RateLimitRecord
		if err := decode(&record); err != nil {
			return err
		}
		if record.Violations >= ViolationThreshold {
			// Record ids are "<endpointClass>:<identifier>"; the identifier
			// itself may contain colons, the class never does.
			class, identifier, _ := strings.Cut(id, ":")
			violators = append(violators, model.Violator{
				EndpointClass: class,
				Identifier:    identifier,
				Violations:    record.Violations,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(violators) == 0 {
		return nil, nil
	}

	alert := model.Alert{
		Id:        uuid.NewString(),
		Violators: violators,
		CreatedAt: s.now(),
	}
	if err := s.store.Set(ctx, store.RateLimitAlerts, alert.Id, alert); err != nil {
		return nil, err
	}

	s.log.Warn().
		Int("violators", len(violators)).
		Str("alert_id", alert.Id).
		Msg("rate limit violators above threshold")
	return &alert, nil
}
