package models

import "github.com/shopspring/decimal"

// Member is one person on the trip roster.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// Name is the display name shown on balances and settlements.
	Name string `json:"name"`

	// TotalPaid and TotalOwed are the member's running totals in the
	// trip's base currency. They are refreshed from the expense list on
	// every recompute; the expense list is the source of truth.
	TotalPaid decimal.Decimal `json:"totalPaid"`
	TotalOwed decimal.Decimal `json:"totalOwed"`

	// HasCompletedExpenses is the member's own "done adding expenses"
	// flag. Settlements become visible once every member has set it.
	HasCompletedExpenses bool `json:"hasCompletedExpenses"`

	// IsManuallyAdded marks members created without a linked identity.
	IsManuallyAdded bool `json:"isManuallyAdded"`

	// ExternalID references the identity issued by the upstream auth
	// collaborator. Empty for manually added members.
	ExternalID string `json:"externalId,omitempty"`
}

// Net is the member's net balance: positive means the member is owed
// money, negative means the member owes money.
func (m *Member) Net() decimal.Decimal {
	return m.TotalPaid.Sub(m.TotalOwed)
}
