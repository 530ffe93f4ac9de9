// Package service implements the trip, expense and settlement operations
// on top of the syncer's read-mutate-commit cycle. Every mutation is a
// pure function of the document it receives, so a write that loses the
// version race can be replayed safely against a fresh snapshot.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"triptally/internal/errs"
	"triptally/internal/ledger"
	"triptally/internal/models"
	"triptally/internal/syncer"
)

// TripService manages trip lifecycle and roster membership.
type TripService struct {
	sync *syncer.Syncer
}

// NewTripService creates a TripService over the given syncer.
func NewTripService(sync *syncer.Syncer) *TripService {
	return &TripService{sync: sync}
}

// CreateTrip creates a trip in the setup phase with the creator as the
// first roster member.
func (s *TripService) CreateTrip(ctx context.Context, name, baseCurrency, creatorName string) (*models.Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validationf("trip name is required")
	}
	baseCurrency = strings.ToUpper(strings.TrimSpace(baseCurrency))
	if len(baseCurrency) != 3 {
		return nil, errs.Validationf("base currency must be a 3-letter code, got %q", baseCurrency)
	}
	creatorName = strings.TrimSpace(creatorName)
	if creatorName == "" {
		return nil, errs.Validationf("creator name is required")
	}

	trip := &models.Trip{
		ID:           uuid.New().String(),
		Name:         name,
		BaseCurrency: baseCurrency,
		Phase:        models.PhaseSetup,
		Members: []models.Member{
			{ID: uuid.New().String(), Name: creatorName},
		},
		Expenses:           []models.Expense{},
		SettlementReceipts: []models.SettlementReceipt{},
		LastModified:       time.Now().Unix(),
	}
	if err := s.sync.Create(ctx, trip); err != nil {
		return nil, err
	}
	slog.Info("trip created", "trip_id", trip.ID, "name", trip.Name, "code", trip.Code)
	return trip, nil
}

// GetTrip returns the latest snapshot of a trip.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.sync.Get(ctx, tripID)
}

// JoinTrip adds a new member to the trip identified by its join code.
// externalID links the member to an upstream identity; it may be empty.
// Returns the updated trip and the ID of the new member.
func (s *TripService) JoinTrip(ctx context.Context, code, memberName, externalID string) (*models.Trip, string, error) {
	memberName = strings.TrimSpace(memberName)
	if memberName == "" {
		return nil, "", errs.Validationf("member name is required")
	}

	found, err := s.sync.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, "", err
	}

	memberID := uuid.New().String()
	trip, err := s.sync.Apply(ctx, found.ID, func(t *models.Trip) error {
		if err := ledger.CanEditRoster(t); err != nil {
			return err
		}
		if externalID != "" {
			for _, m := range t.Members {
				if m.ExternalID == externalID {
					return errs.Validationf("member is already on the trip")
				}
			}
		}
		t.Members = append(t.Members, models.Member{
			ID:         memberID,
			Name:       memberName,
			ExternalID: externalID,
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return trip, memberID, nil
}

// AddMember adds a manually created member with no linked identity, for
// people in the group who do not use the app themselves.
func (s *TripService) AddMember(ctx context.Context, tripID, name string) (*models.Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Validationf("member name is required")
	}
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanEditRoster(t); err != nil {
			return err
		}
		t.Members = append(t.Members, models.Member{
			ID:              uuid.New().String(),
			Name:            name,
			IsManuallyAdded: true,
		})
		return nil
	})
}

// RemoveMember removes a member from the roster and cascades the removal
// through participant lists, custom splits, line-item assignments and
// settlement receipts. Expenses the member paid, and expenses that would
// lose their last participant, block the removal: history cannot be
// reattributed automatically.
func (s *TripService) RemoveMember(ctx context.Context, tripID, memberID string) (*models.Trip, error) {
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanEditRoster(t); err != nil {
			return err
		}
		if t.Member(memberID) == nil {
			return errs.Validationf("member %q is not on the trip", memberID)
		}

		for i := range t.Expenses {
			e := &t.Expenses[i]
			if e.PaidBy == memberID {
				return errs.Validationf("member paid %q; reassign or delete it first", e.Description)
			}
			if e.HasParticipant(memberID) && len(e.Participants) == 1 {
				return errs.Validationf("member is the only participant of %q; delete it first", e.Description)
			}
			// Splits are never rebalanced automatically; a removal that
			// would break one is pushed back to the caller.
			if share, ok := e.CustomSplits[memberID]; ok && !share.IsZero() {
				return errs.Validationf("member has a custom share of %q; edit the split first", e.Description)
			}
			for _, it := range e.Items {
				if len(it.SharedBy) == 1 && it.SharedBy[0] == memberID {
					return errs.Validationf("member is the only one assigned to %q in %q; edit it first", it.Name, e.Description)
				}
			}
		}

		for i := range t.Expenses {
			e := &t.Expenses[i]
			e.Participants = removeID(e.Participants, memberID)
			delete(e.CustomSplits, memberID)
			for j := range e.Items {
				e.Items[j].SharedBy = removeID(e.Items[j].SharedBy, memberID)
			}
		}

		receipts := t.SettlementReceipts[:0]
		for _, r := range t.SettlementReceipts {
			if r.FromPersonID != memberID && r.ToPersonID != memberID {
				receipts = append(receipts, r)
			}
		}
		t.SettlementReceipts = receipts

		members := t.Members[:0]
		for _, m := range t.Members {
			if m.ID != memberID {
				members = append(members, m)
			}
		}
		t.Members = members

		return ledger.RefreshTotals(t)
	})
}

// StartTrip performs the explicit setup → active transition.
func (s *TripService) StartTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanStart(t); err != nil {
			return err
		}
		t.Phase = models.PhaseActive
		return nil
	})
}

// ArchiveTrip moves an active trip to its terminal completed phase.
func (s *TripService) ArchiveTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if t.Phase != models.PhaseActive {
			return errs.Statef("trip %q is %s; only active trips can be archived", t.ID, t.Phase)
		}
		t.Phase = models.PhaseCompleted
		return nil
	})
}

// ToggleConfirmation flips the member's own "done adding expenses" flag.
// The flip is reversible; un-confirming hides settlements again for the
// whole group.
func (s *TripService) ToggleConfirmation(ctx context.Context, tripID, memberID string) (*models.Trip, error) {
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanToggleConfirmation(t); err != nil {
			return err
		}
		m := t.Member(memberID)
		if m == nil {
			return errs.Validationf("member %q is not on the trip", memberID)
		}
		m.HasCompletedExpenses = !m.HasCompletedExpenses
		return nil
	})
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
