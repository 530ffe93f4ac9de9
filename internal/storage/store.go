// Package storage provides abstractions for the trip document store.
package storage

import (
	"context"

	"triptally/internal/models"
)

// SnapshotProvider reads whole authoritative trip snapshots. The engine
// depends on this and MutationSubmitter rather than any concrete backend,
// so storage can be swapped without touching the service layer.
type SnapshotProvider interface {
	// GetTrip retrieves the latest snapshot of a trip document.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// GetTripByCode looks a trip up by its join code.
	GetTripByCode(ctx context.Context, code string) (*models.Trip, error)
}

// MutationSubmitter writes whole trip documents. There are no partial
// merges: every mutation is expressed as a full document written against
// the version the writer read.
type MutationSubmitter interface {
	// CreateTrip persists a new trip document. ID, join code, version
	// and timestamps are populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// SaveTrip replaces the stored document if its current version still
	// equals baseVersion, then increments trip.Version. A mismatch
	// returns a ConcurrencyError and writes nothing.
	SaveTrip(ctx context.Context, trip *models.Trip, baseVersion int64) error
}

// Store is the full document-store surface.
type Store interface {
	SnapshotProvider
	MutationSubmitter

	// Close releases any resources held by the store.
	Close() error
}
