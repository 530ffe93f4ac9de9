package models

import "github.com/shopspring/decimal"

// Phase is the lifecycle stage of a trip.
type Phase string

const (
	// PhaseSetup is the initial stage: only roster edits are allowed.
	PhaseSetup Phase = "setup"
	// PhaseActive allows expense recording and settlement computation.
	PhaseActive Phase = "active"
	// PhaseCompleted is terminal, reached only by explicit archival.
	PhaseCompleted Phase = "completed"
)

// Trip is the whole shared document: the only shared mutable resource.
type Trip struct {
	// ID is the unique identifier for the trip (UUID format).
	ID string `json:"id"`

	// Name is the display name of the trip.
	Name string `json:"name"`

	// Code is the short join code handed to invitees.
	Code string `json:"code"`

	// BaseCurrency is the reporting currency; all balances and
	// settlements are expressed in it.
	BaseCurrency string `json:"baseCurrency"`

	Phase Phase `json:"phase"`

	Members            []Member            `json:"people"`
	Expenses           []Expense           `json:"expenses"`
	SettlementReceipts []SettlementReceipt `json:"settlementReceipts"`

	// Version increases by one on every committed write. Writers must
	// present the version they read; a mismatch is a concurrency conflict.
	Version int64 `json:"version"`

	// LastModified is the Unix timestamp of the last committed write.
	LastModified int64 `json:"lastModified"`
}

// Member returns the roster entry with the given ID, or nil.
func (t *Trip) Member(id string) *Member {
	for i := range t.Members {
		if t.Members[i].ID == id {
			return &t.Members[i]
		}
	}
	return nil
}

// Expense returns the expense with the given ID, or nil.
func (t *Trip) Expense(id string) *Expense {
	for i := range t.Expenses {
		if t.Expenses[i].ID == id {
			return &t.Expenses[i]
		}
	}
	return nil
}

// Receipt returns the settlement receipt for the (from, to) pair, or nil.
// Receipts correlate to computed settlements by pair, not by amount.
func (t *Trip) Receipt(fromID, toID string) *SettlementReceipt {
	for i := range t.SettlementReceipts {
		r := &t.SettlementReceipts[i]
		if r.FromPersonID == fromID && r.ToPersonID == toID {
			return r
		}
	}
	return nil
}

// RosterOrder returns member IDs in roster order. The ledger uses this as
// the stable tie-break so recomputation is reproducible.
func (t *Trip) RosterOrder() []string {
	ids := make([]string, len(t.Members))
	for i, m := range t.Members {
		ids[i] = m.ID
	}
	return ids
}

// TotalSpent sums every expense amount in base currency.
func (t *Trip) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, e := range t.Expenses {
		total = total.Add(e.Amount)
	}
	return total
}
