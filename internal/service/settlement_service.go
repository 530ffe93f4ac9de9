package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"triptally/internal/errs"
	"triptally/internal/ledger"
	"triptally/internal/metrics"
	"triptally/internal/models"
	"triptally/internal/payments"
	"triptally/internal/syncer"
)

// Summary is the trip-level spending overview.
type Summary struct {
	TripID       string                 `json:"tripId"`
	TotalSpent   decimal.Decimal        `json:"totalSpent"`
	BaseCurrency string                 `json:"baseCurrency"`
	ExpenseCount int                    `json:"expenseCount"`
	Balances     []ledger.MemberBalance `json:"balances"`
}

// SettlementService computes balances and settlements and manages the
// confirmation state layered on top of them.
type SettlementService struct {
	sync     *syncer.Syncer
	provider payments.Provider
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(sync *syncer.Syncer, provider payments.Provider) *SettlementService {
	return &SettlementService{sync: sync, provider: provider}
}

// Balances recomputes every member's balance from the full expense list.
func (s *SettlementService) Balances(ctx context.Context, tripID string) ([]ledger.MemberBalance, error) {
	trip, err := s.sync.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	metrics.Recomputes.Inc()
	return ledger.AggregateBalances(trip)
}

// Summary returns the trip-level spending overview.
func (s *SettlementService) Summary(ctx context.Context, tripID string) (*Summary, error) {
	trip, err := s.sync.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	metrics.Recomputes.Inc()
	balances, err := ledger.AggregateBalances(trip)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TripID:       trip.ID,
		TotalSpent:   trip.TotalSpent().Round(2),
		BaseCurrency: trip.BaseCurrency,
		ExpenseCount: len(trip.Expenses),
		Balances:     balances,
	}, nil
}

// Settlements recomputes the transfer list with confirmation state
// overlaid. Hidden until every member has confirmed their expenses.
func (s *SettlementService) Settlements(ctx context.Context, tripID string) ([]models.Settlement, error) {
	trip, err := s.sync.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return computeSettlements(trip)
}

func computeSettlements(trip *models.Trip) ([]models.Settlement, error) {
	if !ledger.SettlementsVisible(trip) {
		return nil, errs.Statef("trip %q: settlements are hidden until every member confirms", trip.ID)
	}
	metrics.Recomputes.Inc()
	balances, err := ledger.AggregateBalances(trip)
	if err != nil {
		return nil, err
	}
	return ledger.OverlayReceipts(ledger.NetDebts(balances), trip), nil
}

// ToggleReceived flips the received flag on the settlement between fromID
// and toID. Only the two parties to the transfer may flip it; flipping a
// confirmation off also clears the provider-paid marker, since the
// payment is then disputed regardless of how it was made.
func (s *SettlementService) ToggleReceived(ctx context.Context, tripID, actorID, fromID, toID string) (*models.Trip, error) {
	if actorID != fromID && actorID != toID {
		return nil, errs.Validationf("only the payer or payee can confirm a settlement")
	}
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		amount, err := findTransfer(t, fromID, toID)
		if err != nil {
			return err
		}
		r := upsertReceipt(t, fromID, toID)
		r.IsReceived = !r.IsReceived
		if !r.IsReceived {
			r.IsPaidViaApp = false
		}
		r.Amount = amount
		r.UpdatedAt = time.Now().Unix()
		return nil
	})
}

// InitiatePayment builds a provider deep link for the settlement between
// fromID and toID. Only the payer may initiate. Nothing is recorded
// until the provider reports a result.
func (s *SettlementService) InitiatePayment(ctx context.Context, tripID, actorID, fromID, toID string) (string, error) {
	if actorID != fromID {
		return "", errs.Validationf("only the payer can initiate a payment")
	}
	trip, err := s.sync.Get(ctx, tripID)
	if err != nil {
		return "", err
	}
	amount, err := findTransfer(trip, fromID, toID)
	if err != nil {
		return "", err
	}
	return s.provider.PaymentLink(trip, models.Settlement{
		FromID: fromID,
		ToID:   toID,
		Amount: amount,
	})
}

// RecordProviderResult applies the outcome the payment provider reported.
// A successful payment marks the settlement both paid-via-app and
// received in one committed write; a failed payment changes nothing.
func (s *SettlementService) RecordProviderResult(ctx context.Context, tripID string, res payments.Result) (*models.Trip, error) {
	refTripID, fromID, toID, err := parseReference(res.Reference)
	if err != nil {
		return nil, err
	}
	if refTripID != tripID {
		return nil, errs.Validationf("payment reference %q does not belong to this trip", res.Reference)
	}
	if !res.Success {
		return s.sync.Get(ctx, tripID)
	}
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		amount, err := findTransfer(t, fromID, toID)
		if err != nil {
			return err
		}
		r := upsertReceipt(t, fromID, toID)
		r.IsPaidViaApp = true
		r.IsReceived = true
		r.Amount = amount
		r.UpdatedAt = time.Now().Unix()
		return nil
	})
}

// findTransfer locates the computed settlement for the pair and returns
// its current amount. Also enforces the visibility gate: a transfer that
// cannot be shown cannot be acted on.
func findTransfer(t *models.Trip, fromID, toID string) (decimal.Decimal, error) {
	if err := ledger.CanToggleSettlement(t); err != nil {
		return decimal.Zero, err
	}
	balances, err := ledger.AggregateBalances(t)
	if err != nil {
		return decimal.Zero, err
	}
	for _, tr := range ledger.NetDebts(balances) {
		if tr.FromID == fromID && tr.ToID == toID {
			return tr.Amount, nil
		}
	}
	return decimal.Zero, errs.Validationf("no settlement from %q to %q", fromID, toID)
}

func upsertReceipt(t *models.Trip, fromID, toID string) *models.SettlementReceipt {
	if r := t.Receipt(fromID, toID); r != nil {
		return r
	}
	t.SettlementReceipts = append(t.SettlementReceipts, models.SettlementReceipt{
		ID:           uuid.New().String(),
		FromPersonID: fromID,
		ToPersonID:   toID,
	})
	return &t.SettlementReceipts[len(t.SettlementReceipts)-1]
}

func parseReference(ref string) (tripID, fromID, toID string, err error) {
	parts := strings.Split(ref, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", errs.Validationf("malformed payment reference %q", ref)
	}
	return parts[0], parts[1], parts[2], nil
}
