// Package rates resolves exchange rates for recording foreign-currency
// expenses. The rate is read once, when the expense is created, and
// frozen onto the expense; later rate changes never move past totals.
package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"triptally/internal/errs"
)

// Provider resolves the rate multiplying an amount in the from currency
// into the to currency.
type Provider interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Static serves rates from a fixed table keyed "FROM/TO". Identity pairs
// always resolve to 1, and an entry's inverse is derived when the direct
// direction is missing.
type Static struct {
	table map[string]decimal.Decimal
}

// NewStatic creates a Static provider over the given table.
func NewStatic(table map[string]decimal.Decimal) *Static {
	if table == nil {
		table = make(map[string]decimal.Decimal)
	}
	return &Static{table: table}
}

func (s *Static) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := s.table[from+"/"+to]; ok {
		return rate, nil
	}
	if inverse, ok := s.table[to+"/"+from]; ok && !inverse.IsZero() {
		return decimal.NewFromInt(1).Div(inverse), nil
	}
	return decimal.Zero, errs.Validationf("no exchange rate for %s/%s", from, to)
}
