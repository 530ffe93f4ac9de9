package models

import "github.com/shopspring/decimal"

// SplitType is the policy governing how an expense is divided.
type SplitType string

const (
	SplitEqual    SplitType = "equal"
	SplitCustom   SplitType = "custom"
	SplitItemized SplitType = "itemized"
)

// Expense is one recorded expense on a trip.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Description is free text ("Dinner", "Taxi to airport").
	Description string `json:"description"`

	// OriginalAmount and OriginalCurrency are the values as entered.
	// Display-only provenance once the expense is recorded.
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	OriginalCurrency string          `json:"originalCurrency"`

	// ExchangeRate converts the original currency to the trip's base
	// currency. Frozen at creation, never re-fetched.
	ExchangeRate decimal.Decimal `json:"exchangeRate"`

	// Amount is OriginalAmount × ExchangeRate rounded to cents, always
	// in the trip's base currency.
	Amount decimal.Decimal `json:"amount"`

	SplitType SplitType `json:"splitType"`

	// PaidBy is the member who paid the full amount.
	PaidBy string `json:"paidBy"`

	// Participants is the non-empty list of member IDs splitting the
	// expense, in roster order.
	Participants []string `json:"participants"`

	// CustomSplits maps member ID to contribution in base currency.
	// Populated only when SplitType is custom.
	CustomSplits map[string]decimal.Decimal `json:"customSplits,omitempty"`

	// Items are the receipt line items. Populated only when SplitType is
	// itemized; each item is divided equally among its SharedBy members.
	Items []LineItem `json:"items,omitempty"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`

	// CreatedBy is the member who recorded the expense.
	CreatedBy string `json:"createdBy"`
}

// LineItem is one itemized entry, typically mapped in from the receipt
// OCR collaborator.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`

	// SharedBy lists the member IDs this item is assigned to. A shared
	// item is divided equally among them.
	SharedBy []string `json:"sharedBy"`
}

// Total is the item's full price: quantity × unit price.
func (it LineItem) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}

// HasParticipant reports whether the member is in the participant list.
func (e *Expense) HasParticipant(memberID string) bool {
	for _, p := range e.Participants {
		if p == memberID {
			return true
		}
	}
	return false
}
