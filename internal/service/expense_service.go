package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"triptally/internal/errs"
	"triptally/internal/ledger"
	"triptally/internal/models"
	"triptally/internal/rates"
	"triptally/internal/syncer"
)

// ExpenseInput carries the caller-provided fields of an expense. All
// monetary values are in Currency; the service converts them to the
// trip's base currency when the expense is recorded.
type ExpenseInput struct {
	Description  string                     `json:"description"`
	Amount       decimal.Decimal            `json:"amount"`
	Currency     string                     `json:"currency"`
	SplitType    models.SplitType           `json:"splitType"`
	PaidBy       string                     `json:"paidBy"`
	Participants []string                   `json:"participants"`
	CustomSplits map[string]decimal.Decimal `json:"customSplits,omitempty"`
	Items        []models.LineItem          `json:"items,omitempty"`
}

// ExpenseService records, edits and deletes expenses.
type ExpenseService struct {
	sync  *syncer.Syncer
	rates rates.Provider
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(sync *syncer.Syncer, rates rates.Provider) *ExpenseService {
	return &ExpenseService{sync: sync, rates: rates}
}

// AddExpense records a new expense. The exchange rate is resolved once,
// here, and frozen onto the expense; the split is resolved up front so an
// inconsistent expense never enters the document.
func (s *ExpenseService) AddExpense(ctx context.Context, tripID, actorID string, in ExpenseInput) (*models.Trip, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	current, err := s.sync.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	exp, err := s.buildExpense(ctx, current, in)
	if err != nil {
		return nil, err
	}
	exp.ID = uuid.New().String()
	exp.CreatedAt = time.Now().Unix()
	exp.CreatedBy = actorID

	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanRecordExpenses(t); err != nil {
			return err
		}
		if err := checkMembers(t, exp); err != nil {
			return err
		}
		if _, err := ledger.ResolveSplit(exp, t.RosterOrder()); err != nil {
			return err
		}
		t.Expenses = append(t.Expenses, *exp)
		return ledger.RefreshTotals(t)
	})
}

// UpdateExpense replaces the caller-editable fields of an expense. The
// frozen exchange rate is kept unless the currency itself changes; an
// edit never re-fetches a rate for an unchanged currency, so later rate
// movement cannot reprice past expenses.
func (s *ExpenseService) UpdateExpense(ctx context.Context, tripID, expenseID string, in ExpenseInput) (*models.Trip, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	current, err := s.sync.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	prior := current.Expense(expenseID)
	if prior == nil {
		return nil, errs.Validationf("expense %q is not on the trip", expenseID)
	}

	currency := normalizeCurrency(in.Currency, current.BaseCurrency)
	rate := prior.ExchangeRate
	if currency != prior.OriginalCurrency {
		rate, err = s.rates.Rate(ctx, currency, current.BaseCurrency)
		if err != nil {
			return nil, err
		}
	}
	exp := convertExpense(in, currency, rate)

	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanRecordExpenses(t); err != nil {
			return err
		}
		existing := t.Expense(expenseID)
		if existing == nil {
			return errs.Validationf("expense %q is not on the trip", expenseID)
		}
		if err := checkMembers(t, exp); err != nil {
			return err
		}

		exp.ID = existing.ID
		exp.CreatedAt = existing.CreatedAt
		exp.CreatedBy = existing.CreatedBy
		if _, err := ledger.ResolveSplit(exp, t.RosterOrder()); err != nil {
			return err
		}
		*existing = *exp
		return ledger.RefreshTotals(t)
	})
}

// DeleteExpense removes an expense from the trip.
func (s *ExpenseService) DeleteExpense(ctx context.Context, tripID, expenseID string) (*models.Trip, error) {
	return s.sync.Apply(ctx, tripID, func(t *models.Trip) error {
		if err := ledger.CanRecordExpenses(t); err != nil {
			return err
		}
		kept := t.Expenses[:0]
		found := false
		for _, e := range t.Expenses {
			if e.ID == expenseID {
				found = true
				continue
			}
			kept = append(kept, e)
		}
		if !found {
			return errs.Validationf("expense %q is not on the trip", expenseID)
		}
		t.Expenses = kept
		return ledger.RefreshTotals(t)
	})
}

func validateInput(in ExpenseInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return errs.Validationf("expense description is required")
	}
	if !in.Amount.IsPositive() {
		return errs.Validationf("expense amount must be positive, got %s", in.Amount)
	}
	if in.PaidBy == "" {
		return errs.Validationf("paidBy is required")
	}
	if len(in.Participants) == 0 {
		return errs.Validationf("an expense needs at least one participant")
	}
	switch in.SplitType {
	case models.SplitEqual:
	case models.SplitCustom:
		if len(in.CustomSplits) == 0 {
			return errs.Validationf("a custom split needs per-member amounts")
		}
		for id, share := range in.CustomSplits {
			if !containsID(in.Participants, id) {
				return errs.Validationf("custom split references %q, who is not a participant", id)
			}
			if share.IsNegative() {
				return errs.Validationf("custom split for %q is negative", id)
			}
		}
		for _, id := range in.Participants {
			if _, ok := in.CustomSplits[id]; !ok {
				return errs.Validationf("participant %q has no custom split entry", id)
			}
		}
	case models.SplitItemized:
		if len(in.Items) == 0 {
			return errs.Validationf("an itemized split needs line items")
		}
		for _, it := range in.Items {
			if it.Quantity <= 0 {
				return errs.Validationf("item %q needs a positive quantity", it.Name)
			}
			if it.UnitPrice.IsNegative() {
				return errs.Validationf("item %q has a negative price", it.Name)
			}
		}
	default:
		return errs.Validationf("unknown split type %q", in.SplitType)
	}
	return nil
}

// buildExpense converts the input's monetary fields into the trip's base
// currency using a rate read once and frozen onto the expense.
func (s *ExpenseService) buildExpense(ctx context.Context, trip *models.Trip, in ExpenseInput) (*models.Expense, error) {
	currency := normalizeCurrency(in.Currency, trip.BaseCurrency)
	rate, err := s.rates.Rate(ctx, currency, trip.BaseCurrency)
	if err != nil {
		return nil, err
	}
	return convertExpense(in, currency, rate), nil
}

func normalizeCurrency(currency, base string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = base
	}
	return currency
}

func convertExpense(in ExpenseInput, currency string, rate decimal.Decimal) *models.Expense {
	exp := &models.Expense{
		Description:      strings.TrimSpace(in.Description),
		OriginalAmount:   in.Amount,
		OriginalCurrency: currency,
		ExchangeRate:     rate,
		Amount:           in.Amount.Mul(rate).Round(2),
		SplitType:        in.SplitType,
		PaidBy:           in.PaidBy,
		Participants:     append([]string(nil), in.Participants...),
	}

	if len(in.CustomSplits) > 0 {
		exp.CustomSplits = make(map[string]decimal.Decimal, len(in.CustomSplits))
		sum := decimal.Zero
		for id, v := range in.CustomSplits {
			share := v.Mul(rate).Round(2)
			exp.CustomSplits[id] = share
			sum = sum.Add(share)
		}
		// Per-entry rounding can drift the converted sum by up to half a
		// cent per entry. Fold that drift back in participant order so a
		// split exact in the original currency stays exact in base. A
		// larger gap is a genuine mismatch and is left for reconciliation
		// to reject.
		drift := exp.Amount.Sub(sum).Mul(decimal.NewFromInt(100)).IntPart()
		bound := int64(len(in.CustomSplits))
		if drift != 0 && drift >= -bound && drift <= bound {
			step := decimal.New(1, -2)
			if drift < 0 {
				step = step.Neg()
				drift = -drift
			}
			for i := int64(0); i < drift; i++ {
				id := in.Participants[int(i)%len(in.Participants)]
				exp.CustomSplits[id] = exp.CustomSplits[id].Add(step)
			}
		}
	}
	if len(in.Items) > 0 {
		exp.Items = make([]models.LineItem, len(in.Items))
		for i, it := range in.Items {
			it.UnitPrice = it.UnitPrice.Mul(rate).Round(2)
			it.SharedBy = append([]string(nil), it.SharedBy...)
			exp.Items[i] = it
		}
	}
	return exp
}

// checkMembers verifies every member the expense references is on the
// current roster. Runs inside the mutation so replays against a fresh
// snapshot re-check it.
func checkMembers(t *models.Trip, exp *models.Expense) error {
	if t.Member(exp.PaidBy) == nil {
		return errs.Validationf("payer %q is not on the trip", exp.PaidBy)
	}
	for _, id := range exp.Participants {
		if t.Member(id) == nil {
			return errs.Validationf("participant %q is not on the trip", id)
		}
	}
	for _, it := range exp.Items {
		for _, id := range it.SharedBy {
			if t.Member(id) == nil {
				return errs.Validationf("item %q is assigned to %q, who is not on the trip", it.Name, id)
			}
		}
	}
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
