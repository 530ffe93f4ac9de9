package models

import "github.com/shopspring/decimal"

// Settlement is one computed transfer that, together with the rest of the
// settlement list, zeroes every member's net balance. Settlements are a
// pure function of current balances and are never stored independently;
// the confirmation fields are overlaid from the matching receipt at read
// time.
type Settlement struct {
	// FromID owes the money; ToID is owed.
	FromID string `json:"fromPersonId"`
	ToID   string `json:"toPersonId"`

	// Amount is in the trip's base currency.
	Amount decimal.Decimal `json:"amount"`

	// IsReceived and IsPaidViaApp mirror the persisted receipt for this
	// (from, to) pair; both false when no receipt exists.
	IsReceived   bool `json:"isReceived"`
	IsPaidViaApp bool `json:"isPaidViaApp"`
}

// SettlementReceipt is the persisted confirmation state for one computed
// settlement, correlated by (from, to) pair. It carries the only mutable
// state in the settlement pipeline.
type SettlementReceipt struct {
	// ID is the unique identifier for the receipt (UUID format).
	ID string `json:"id"`

	FromPersonID string `json:"fromPersonId"`
	ToPersonID   string `json:"toPersonId"`

	// Amount records the computed settlement amount at the time of
	// confirmation. Advisory provenance only; correlation is by pair.
	Amount decimal.Decimal `json:"amount"`

	// IsReceived is true once the payment has been confirmed, whether
	// manually or through the provider flow.
	IsReceived bool `json:"isReceived"`

	// IsPaidViaApp is true only when the confirmation came from a
	// successful provider-initiated payment.
	IsPaidViaApp bool `json:"isPaidViaApp"`

	// UpdatedAt is the Unix timestamp of the last state change.
	UpdatedAt int64 `json:"updatedAt"`
}
