package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"triptally/internal/models"
)

// MemberBalance is the aggregated position of one member.
type MemberBalance struct {
	MemberID  string          `json:"memberId"`
	Name      string          `json:"name"`
	TotalPaid decimal.Decimal `json:"totalPaid"`
	TotalOwed decimal.Decimal `json:"totalOwed"`

	// Net is TotalPaid − TotalOwed. Positive means the member is owed
	// money, negative means the member owes money.
	Net decimal.Decimal `json:"netBalance"`
}

// AggregateBalances folds the full expense list into one balance per
// member, in roster order. It is recomputed in full on every read: any
// local or remote mutation simply triggers a fresh fold over the canonical
// expense list, so aggregated state can never drift from its inputs.
func AggregateBalances(trip *models.Trip) ([]MemberBalance, error) {
	paid := make(map[string]decimal.Decimal, len(trip.Members))
	owed := make(map[string]decimal.Decimal, len(trip.Members))
	roster := trip.RosterOrder()

	for i := range trip.Expenses {
		exp := &trip.Expenses[i]
		if exp.PaidBy == "" {
			// Cannot attribute payment; skip rather than corrupt totals.
			continue
		}

		paid[exp.PaidBy] = paid[exp.PaidBy].Add(exp.Amount)

		shares, err := ResolveSplit(exp, roster)
		if err != nil {
			return nil, fmt.Errorf("aggregate balances: %w", err)
		}
		for id, share := range shares {
			owed[id] = owed[id].Add(share)
		}
	}

	balances := make([]MemberBalance, len(trip.Members))
	for i, m := range trip.Members {
		p := paid[m.ID]
		o := owed[m.ID]
		balances[i] = MemberBalance{
			MemberID:  m.ID,
			Name:      m.Name,
			TotalPaid: p,
			TotalOwed: o,
			Net:       p.Sub(o),
		}
	}
	return balances, nil
}

// RefreshTotals writes aggregated totals back onto the roster entries.
// The document keeps these as a convenience view; the expense list stays
// the source of truth.
func RefreshTotals(trip *models.Trip) error {
	balances, err := AggregateBalances(trip)
	if err != nil {
		return err
	}
	for i := range trip.Members {
		trip.Members[i].TotalPaid = balances[i].TotalPaid
		trip.Members[i].TotalOwed = balances[i].TotalOwed
	}
	return nil
}
