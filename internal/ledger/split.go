// Package ledger implements the settlement engine: split resolution,
// balance aggregation, debt netting and phase gating. Every function is a
// pure computation over a trip snapshot, so the whole pipeline can be
// re-run on any snapshot change without synchronization.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"triptally/internal/errs"
	"triptally/internal/models"
)

// Epsilon is the reconciliation tolerance, 0.01 base-currency units.
// Balances within Epsilon of zero are treated as settled.
var Epsilon = decimal.NewFromFloat(0.01)

// ErrSplitMismatch is returned when a custom or itemized split fails to
// reconcile with the expense amount within Epsilon. It must be caught at
// expense-creation time; a committed expense never trips it on read.
var ErrSplitMismatch = &errs.ValidationError{Msg: "split does not reconcile with expense amount"}

// ResolveSplit computes each participant's contribution for one expense.
// Contributions are in base currency and, for equal and itemized splits,
// sum exactly to exp.Amount: sub-cent remainders are handed out one cent
// at a time in roster order so recomputation is reproducible.
func ResolveSplit(exp *models.Expense, rosterOrder []string) (map[string]decimal.Decimal, error) {
	if len(exp.Participants) == 0 {
		return nil, errs.Validationf("expense %q has no participants", exp.ID)
	}

	participants := orderByRoster(exp.Participants, rosterOrder)

	switch exp.SplitType {
	case models.SplitEqual:
		return equalShares(exp.Amount, participants), nil
	case models.SplitCustom:
		return resolveCustom(exp, participants)
	case models.SplitItemized:
		return resolveItemized(exp, participants, rosterOrder)
	default:
		return nil, errs.Validationf("expense %q: unknown split type %q", exp.ID, exp.SplitType)
	}
}

// resolveCustom reads contributions directly from the custom split map.
// Entries were converted to base currency when the expense was recorded.
func resolveCustom(exp *models.Expense, participants []string) (map[string]decimal.Decimal, error) {
	shares := make(map[string]decimal.Decimal, len(participants))
	sum := decimal.Zero
	for _, id := range participants {
		share := exp.CustomSplits[id]
		shares[id] = share
		sum = sum.Add(share)
	}
	if sum.Sub(exp.Amount).Abs().GreaterThanOrEqual(Epsilon) {
		return nil, fmt.Errorf("expense %q: custom splits sum to %s against amount %s: %w",
			exp.ID, sum, exp.Amount, ErrSplitMismatch)
	}
	return shares, nil
}

// resolveItemized assigns each line item to its designated members, shared
// items divided equally with the same remainder rule as equal splits. When
// the item subtotal differs from the expense amount (tax, tip, service
// charge), each contribution is pro-rated so the total reconciles exactly.
func resolveItemized(exp *models.Expense, participants, rosterOrder []string) (map[string]decimal.Decimal, error) {
	centsByMember := make(map[string]int64, len(participants))
	for _, id := range participants {
		centsByMember[id] = 0
	}

	var subtotal int64
	for _, item := range exp.Items {
		if len(item.SharedBy) == 0 {
			return nil, fmt.Errorf("expense %q: item %q has no assigned members: %w",
				exp.ID, item.Name, ErrSplitMismatch)
		}
		itemCents := cents(item.Total())
		subtotal += itemCents

		assignees := orderByRoster(item.SharedBy, rosterOrder)
		per := itemCents / int64(len(assignees))
		rem := itemCents % int64(len(assignees))
		for i, id := range assignees {
			share := per
			if int64(i) < rem {
				share++
			}
			centsByMember[id] += share
		}
	}

	total := cents(exp.Amount)
	if subtotal == 0 {
		if total != 0 {
			return nil, fmt.Errorf("expense %q: itemized split has no priced items: %w",
				exp.ID, ErrSplitMismatch)
		}
		return fromCents(centsByMember), nil
	}

	if subtotal != total {
		// Pro-rate tax/tip proportionally, then hand the rounding
		// residue out in roster order.
		var assigned int64
		for _, id := range participants {
			scaled := centsByMember[id] * total / subtotal
			centsByMember[id] = scaled
			assigned += scaled
		}
		for i := int64(0); i < total-assigned; i++ {
			centsByMember[participants[i%int64(len(participants))]]++
		}
	}

	return fromCents(centsByMember), nil
}

// equalShares divides amount evenly across ids, distributing the leftover
// cents to the first members in roster order.
func equalShares(amount decimal.Decimal, ids []string) map[string]decimal.Decimal {
	total := cents(amount)
	n := int64(len(ids))
	per := total / n
	rem := total % n

	shares := make(map[string]decimal.Decimal, len(ids))
	for i, id := range ids {
		c := per
		if int64(i) < rem {
			c++
		}
		shares[id] = decimal.New(c, -2)
	}
	return shares
}

// orderByRoster returns ids sorted by their roster position. IDs missing
// from the roster keep their relative order at the end.
func orderByRoster(ids, rosterOrder []string) []string {
	pos := make(map[string]int, len(rosterOrder))
	for i, id := range rosterOrder {
		pos[id] = i
	}

	ordered := make([]string, len(ids))
	copy(ordered, ids)
	// Insertion sort keeps this allocation-free and stable; rosters are
	// small groups of people, not datasets.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && rosterPos(pos, ordered[j]) < rosterPos(pos, ordered[j-1]); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return ordered
}

func rosterPos(pos map[string]int, id string) int {
	if p, ok := pos[id]; ok {
		return p
	}
	return int(^uint(0) >> 1) // unknown members sort last
}

// cents converts a decimal amount to integer minimum units.
func cents(d decimal.Decimal) int64 {
	return d.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

func fromCents(byMember map[string]int64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(byMember))
	for id, c := range byMember {
		out[id] = decimal.New(c, -2)
	}
	return out
}
