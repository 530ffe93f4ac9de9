package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"triptally/internal/models"
)

// NetDebts reduces net balances to pairwise transfers that zero every
// balance, using greedy largest-pair matching: repeatedly match the
// largest creditor with the largest debtor. Not globally minimal for
// every distribution, but never more than n−1 transfers for n members
// with non-zero balances, and deterministic: ties are broken by roster
// order, so recomputation always yields the same list.
func NetDebts(balances []MemberBalance) []models.Settlement {
	type party struct {
		id     string
		amount decimal.Decimal
		roster int // input position, the stable tie-break
	}

	var creditors, debtors []party
	for i, b := range balances {
		switch {
		case b.Net.GreaterThan(Epsilon):
			creditors = append(creditors, party{id: b.MemberID, amount: b.Net, roster: i})
		case b.Net.LessThan(Epsilon.Neg()):
			debtors = append(debtors, party{id: b.MemberID, amount: b.Net.Neg(), roster: i})
		}
	}

	byAmountDesc := func(ps []party) {
		sort.Slice(ps, func(i, j int) bool {
			if !ps[i].amount.Equal(ps[j].amount) {
				return ps[i].amount.GreaterThan(ps[j].amount)
			}
			return ps[i].roster < ps[j].roster
		})
	}

	var transfers []models.Settlement
	for len(creditors) > 0 && len(debtors) > 0 {
		byAmountDesc(creditors)
		byAmountDesc(debtors)

		c := &creditors[0]
		d := &debtors[0]

		amount := decimal.Min(c.amount, d.amount).Round(2)
		transfers = append(transfers, models.Settlement{
			FromID: d.id,
			ToID:   c.id,
			Amount: amount,
		})

		c.amount = c.amount.Sub(amount)
		d.amount = d.amount.Sub(amount)

		if c.amount.LessThanOrEqual(Epsilon) {
			creditors = creditors[1:]
		}
		if d.amount.LessThanOrEqual(Epsilon) {
			debtors = debtors[1:]
		}
	}

	return transfers
}

// OverlayReceipts copies persisted confirmation state onto computed
// transfers, correlated by (from, to) pair. Transfers without a receipt
// stay pending.
func OverlayReceipts(transfers []models.Settlement, trip *models.Trip) []models.Settlement {
	out := make([]models.Settlement, len(transfers))
	for i, tr := range transfers {
		if r := trip.Receipt(tr.FromID, tr.ToID); r != nil {
			tr.IsReceived = r.IsReceived
			tr.IsPaidViaApp = r.IsPaidViaApp
		}
		out[i] = tr
	}
	return out
}
