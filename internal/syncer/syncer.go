// Package syncer orchestrates whole-document mutations against the trip
// store. Every mutation is "read latest snapshot, apply the delta, write
// the whole document back": the write is compare-and-swap on the document
// version, losing writers re-fetch and re-apply, and transient transport
// failures are retried a bounded number of times with a fixed delay.
//
// Committed and remotely ingested snapshots fan out to subscribers; the
// snapshot that arrives is authoritative the moment it does, with no
// local-wins special case.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"triptally/internal/errs"
	"triptally/internal/metrics"
	"triptally/internal/models"
	"triptally/internal/storage"
)

const (
	// maxTransportRetries bounds automatic retries of a store operation
	// after a transient failure, excluding the initial attempt.
	maxTransportRetries = 2

	// retryBackoff is the fixed delay between transport retries.
	retryBackoff = 1500 * time.Millisecond

	// maxConflictReplays bounds how many times a mutation is re-applied
	// against a fresh snapshot after losing the version race.
	maxConflictReplays = 3
)

// Subscriber receives authoritative snapshots after every committed local
// write and every remote ingest. old is the previously seen snapshot of
// the same trip, nil when none is known. Snapshots are not mutated after
// delivery.
type Subscriber func(old, latest *models.Trip)

// Syncer serializes document mutations and fans out snapshots.
type Syncer struct {
	store storage.Store

	backoff time.Duration // test override

	mu   sync.Mutex
	last map[string]*models.Trip
	subs []Subscriber
}

// New creates a Syncer over the given store.
func New(store storage.Store) *Syncer {
	return &Syncer{
		store:   store,
		backoff: retryBackoff,
		last:    make(map[string]*models.Trip),
	}
}

// Subscribe registers fn for snapshot deliveries. Not safe to call
// concurrently with deliveries; register subscribers during wiring.
func (s *Syncer) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Create persists a new trip and publishes its first snapshot.
func (s *Syncer) Create(ctx context.Context, trip *models.Trip) error {
	err := s.withRetry(ctx, func() error {
		return s.store.CreateTrip(ctx, trip)
	})
	if err != nil {
		return err
	}
	s.publish(trip)
	return nil
}

// Get reads the latest snapshot, retrying transient transport failures.
func (s *Syncer) Get(ctx context.Context, tripID string) (*models.Trip, error) {
	var trip *models.Trip
	err := s.withRetry(ctx, func() error {
		var err error
		trip, err = s.store.GetTrip(ctx, tripID)
		return err
	})
	return trip, err
}

// GetByCode reads the latest snapshot by join code.
func (s *Syncer) GetByCode(ctx context.Context, code string) (*models.Trip, error) {
	var trip *models.Trip
	err := s.withRetry(ctx, func() error {
		var err error
		trip, err = s.store.GetTripByCode(ctx, code)
		return err
	})
	return trip, err
}

// Apply runs mutate against the latest snapshot and writes the result
// back under compare-and-swap. When the write loses the version race the
// mutation is re-applied to a fresh snapshot; mutations must therefore be
// pure functions of the document they receive. Returns the committed
// snapshot.
func (s *Syncer) Apply(ctx context.Context, tripID string, mutate func(*models.Trip) error) (*models.Trip, error) {
	var lastErr error
	for replay := 0; replay <= maxConflictReplays; replay++ {
		trip, err := s.Get(ctx, tripID)
		if err != nil {
			return nil, err
		}
		base := trip.Version

		if err := mutate(trip); err != nil {
			return nil, err
		}
		trip.LastModified = time.Now().Unix()

		err = s.withRetry(ctx, func() error {
			return s.store.SaveTrip(ctx, trip, base)
		})
		if errs.IsConcurrency(err) {
			metrics.SyncConflicts.Inc()
			slog.Debug("write lost version race, re-applying",
				"trip_id", tripID, "base_version", base)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		s.publish(trip)
		return trip, nil
	}
	return nil, fmt.Errorf("mutation of trip %q kept losing the version race: %w", tripID, lastErr)
}

// Ingest accepts a remotely pushed snapshot. The remote document is
// authoritative the moment it arrives, even with a local write in flight.
func (s *Syncer) Ingest(trip *models.Trip) {
	s.publish(trip)
}

func (s *Syncer) publish(trip *models.Trip) {
	s.mu.Lock()
	old := s.last[trip.ID]
	s.last[trip.ID] = trip
	subs := make([]Subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(old, trip)
	}
}

// withRetry runs op, retrying transport failures with a fixed backoff.
// Validation, state, concurrency and not-found errors pass through
// untouched: retrying cannot help them.
func (s *Syncer) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !errs.IsTransport(err) {
			return err
		}
		if attempt >= maxTransportRetries {
			return err
		}

		metrics.SyncRetries.Inc()
		slog.Warn("transient store failure, retrying",
			"attempt", attempt+1, "backoff", s.backoff, "error", err)

		select {
		case <-time.After(s.backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
