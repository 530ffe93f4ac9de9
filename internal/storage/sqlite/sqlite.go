// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface. Trips are stored as whole JSON documents with
// compare-and-swap on the version column, mirroring the document-store
// semantics the engine is written against.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"triptally/internal/errs"
	"triptally/internal/models"
	"triptally/internal/storage"
)

// Ensure TripStore implements storage.Store
var _ storage.Store = (*TripStore)(nil)

// TripStore implements storage.Store using SQLite.
type TripStore struct {
	db *sql.DB
}

// New creates a new TripStore with the given database path. It creates
// the parent directories and runs migrations automatically.
func New(dbPath string) (*TripStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TripStore{db: db}, nil
}

// Close closes the database connection.
func (s *TripStore) Close() error {
	return s.db.Close()
}

// CreateTrip persists a new trip document, assigning ID, join code,
// initial version and timestamps.
func (s *TripStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.Code == "" {
		trip.Code = generateJoinCode()
	}
	trip.Version = 1
	trip.LastModified = time.Now().Unix()

	doc, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO trips (id, code, version, last_modified, doc) VALUES (?, ?, ?, ?, ?)",
		trip.ID, trip.Code, trip.Version, trip.LastModified, string(doc),
	)
	if err != nil {
		return &errs.TransportError{Op: "create trip", Err: err}
	}
	return nil
}

// GetTrip retrieves the latest snapshot of a trip document.
func (s *TripStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.getTrip(ctx, "SELECT doc FROM trips WHERE id = ?", tripID)
}

// GetTripByCode looks a trip up by its join code.
func (s *TripStore) GetTripByCode(ctx context.Context, code string) (*models.Trip, error) {
	return s.getTrip(ctx, "SELECT doc FROM trips WHERE code = ?", code)
}

func (s *TripStore) getTrip(ctx context.Context, query, arg string) (*models.Trip, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %q: %w", arg, errs.ErrNotFound)
	}
	if err != nil {
		return nil, &errs.TransportError{Op: "get trip", Err: err}
	}

	trip := &models.Trip{}
	if err := json.Unmarshal([]byte(doc), trip); err != nil {
		return nil, fmt.Errorf("failed to decode trip document %q: %w", arg, err)
	}
	return trip, nil
}

// SaveTrip replaces the stored document under compare-and-swap: the write
// only lands if the stored version still equals baseVersion. On success
// trip.Version and trip.LastModified reflect the committed write.
func (s *TripStore) SaveTrip(ctx context.Context, trip *models.Trip, baseVersion int64) error {
	trip.Version = baseVersion + 1
	trip.LastModified = time.Now().Unix()

	doc, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("failed to marshal trip: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE trips SET doc = ?, version = ?, last_modified = ? WHERE id = ? AND version = ?",
		string(doc), trip.Version, trip.LastModified, trip.ID, baseVersion,
	)
	if err != nil {
		return &errs.TransportError{Op: "save trip", Err: err}
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return &errs.TransportError{Op: "save trip", Err: err}
	}
	if rows == 0 {
		// Either the trip is gone or someone wrote in between.
		var exists bool
		err := s.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM trips WHERE id = ?)", trip.ID,
		).Scan(&exists)
		if err != nil {
			return &errs.TransportError{Op: "save trip", Err: err}
		}
		if !exists {
			return fmt.Errorf("trip %q: %w", trip.ID, errs.ErrNotFound)
		}
		return &errs.ConcurrencyError{TripID: trip.ID, BaseVersion: baseVersion}
	}
	return nil
}

// joinCodeAlphabet avoids characters that read ambiguously when shared
// aloud or scribbled on a napkin.
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func generateJoinCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken.
		panic(fmt.Sprintf("failed to read random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}
