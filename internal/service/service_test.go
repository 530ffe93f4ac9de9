package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"triptally/internal/errs"
	"triptally/internal/models"
	"triptally/internal/payments"
	"triptally/internal/rates"
	"triptally/internal/syncer"
)

// memStore is an in-memory document store with version checks.
type memStore struct {
	trips map[string]*models.Trip
}

func newMemStore() *memStore {
	return &memStore{trips: make(map[string]*models.Trip)}
}

func cloneTrip(t *models.Trip) *models.Trip {
	raw, err := json.Marshal(t)
	if err != nil {
		panic(err)
	}
	out := &models.Trip{}
	if err := json.Unmarshal(raw, out); err != nil {
		panic(err)
	}
	return out
}

func (m *memStore) GetTrip(_ context.Context, tripID string) (*models.Trip, error) {
	t, ok := m.trips[tripID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return cloneTrip(t), nil
}

func (m *memStore) GetTripByCode(_ context.Context, code string) (*models.Trip, error) {
	for _, t := range m.trips {
		if t.Code == code {
			return cloneTrip(t), nil
		}
	}
	return nil, errs.ErrNotFound
}

func (m *memStore) CreateTrip(_ context.Context, trip *models.Trip) error {
	if trip.Code == "" {
		trip.Code = "JOIN42"
	}
	trip.Version = 1
	m.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (m *memStore) SaveTrip(_ context.Context, trip *models.Trip, baseVersion int64) error {
	current, ok := m.trips[trip.ID]
	if !ok {
		return errs.ErrNotFound
	}
	if current.Version != baseVersion {
		return &errs.ConcurrencyError{TripID: trip.ID, BaseVersion: baseVersion}
	}
	trip.Version = baseVersion + 1
	m.trips[trip.ID] = cloneTrip(trip)
	return nil
}

func (m *memStore) Close() error { return nil }

type fixture struct {
	trips       *TripService
	expenses    *ExpenseService
	settlements *SettlementService
}

func newFixture() fixture {
	table := map[string]decimal.Decimal{
		"USD/EUR": decimal.NewFromFloat(0.90),
	}
	return newFixtureWithRates(rates.NewStatic(table))
}

func newFixtureWithRates(p rates.Provider) fixture {
	sync := syncer.New(newMemStore())
	return fixture{
		trips:       NewTripService(sync),
		expenses:    NewExpenseService(sync, p),
		settlements: NewSettlementService(sync, payments.NewDeepLink("https://pay.example.com/send")),
	}
}

// settableRates serves one mutable rate for every non-identity pair, so a
// test can move the market between calls.
type settableRates struct {
	rate decimal.Decimal
}

func (s *settableRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	return s.rate, nil
}

// activeTrip creates a started trip with alice (creator), bob and carol.
func activeTrip(t *testing.T, f fixture) (tripID string, ids map[string]string) {
	t.Helper()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, "Lisbon", "eur", "Alice")
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	ids = map[string]string{"alice": trip.Members[0].ID}

	for _, name := range []string{"Bob", "Carol"} {
		trip, err = f.trips.AddMember(ctx, trip.ID, name)
		if err != nil {
			t.Fatalf("AddMember(%s) failed: %v", name, err)
		}
	}
	ids["bob"] = trip.Members[1].ID
	ids["carol"] = trip.Members[2].ID

	if _, err := f.trips.StartTrip(ctx, trip.ID); err != nil {
		t.Fatalf("StartTrip failed: %v", err)
	}
	return trip.ID, ids
}

func equalDinner(paidBy string, participants []string) ExpenseInput {
	return ExpenseInput{
		Description:  "Dinner",
		Amount:       decimal.NewFromFloat(100.00),
		SplitType:    models.SplitEqual,
		PaidBy:       paidBy,
		Participants: participants,
	}
}

func TestCreateTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, "Lisbon", "eur", "Alice")
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	if trip.Phase != models.PhaseSetup {
		t.Errorf("new trip phase: got %s, want setup", trip.Phase)
	}
	if trip.BaseCurrency != "EUR" {
		t.Errorf("base currency not normalized: got %s", trip.BaseCurrency)
	}
	if len(trip.Members) != 1 || trip.Members[0].Name != "Alice" {
		t.Errorf("creator not on roster: %+v", trip.Members)
	}
	if trip.Code == "" {
		t.Error("expected a join code")
	}

	if _, err := f.trips.CreateTrip(ctx, "", "EUR", "Alice"); !errs.IsValidation(err) {
		t.Errorf("empty name: expected validation error, got %v", err)
	}
	if _, err := f.trips.CreateTrip(ctx, "Lisbon", "euro", "Alice"); !errs.IsValidation(err) {
		t.Errorf("bad currency: expected validation error, got %v", err)
	}
}

func TestJoinTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, "Lisbon", "EUR", "Alice")
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}

	joined, bobID, err := f.trips.JoinTrip(ctx, trip.Code, "Bob", "auth-bob")
	if err != nil {
		t.Fatalf("JoinTrip failed: %v", err)
	}
	if joined.Member(bobID) == nil {
		t.Fatal("joined member not on roster")
	}
	if joined.Member(bobID).ExternalID != "auth-bob" {
		t.Error("external ID not recorded")
	}

	if _, _, err := f.trips.JoinTrip(ctx, trip.Code, "Bob again", "auth-bob"); !errs.IsValidation(err) {
		t.Errorf("duplicate identity: expected validation error, got %v", err)
	}
	if _, _, err := f.trips.JoinTrip(ctx, "NOPE99", "Dana", ""); err == nil {
		t.Error("unknown code: expected an error")
	}
}

func TestExpensePhaseGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, "Lisbon", "EUR", "Alice")
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	alice := trip.Members[0].ID

	_, err = f.expenses.AddExpense(ctx, trip.ID, alice, equalDinner(alice, []string{alice}))
	if !errs.IsState(err) {
		t.Fatalf("expense during setup: expected state error, got %v", err)
	}
}

func TestAddExpenseUpdatesTotals(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	trip, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"], ids["carol"]}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	alice := trip.Member(ids["alice"])
	if !alice.TotalPaid.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("alice paid: got %s, want 100", alice.TotalPaid)
	}
	if !alice.TotalOwed.Equal(decimal.NewFromFloat(33.34)) {
		t.Errorf("alice owed: got %s, want 33.34 (first in roster takes the remainder)", alice.TotalOwed)
	}
	bob := trip.Member(ids["bob"])
	if !bob.TotalOwed.Equal(decimal.NewFromFloat(33.33)) {
		t.Errorf("bob owed: got %s, want 33.33", bob.TotalOwed)
	}
}

func TestAddExpenseForeignCurrency(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	in := equalDinner(ids["alice"], []string{ids["alice"], ids["bob"]})
	in.Currency = "USD"
	trip, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in)
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	exp := &trip.Expenses[0]
	if !exp.Amount.Equal(decimal.NewFromFloat(90.00)) {
		t.Errorf("converted amount: got %s, want 90.00", exp.Amount)
	}
	if exp.OriginalCurrency != "USD" || !exp.OriginalAmount.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("original values not preserved: %s %s", exp.OriginalAmount, exp.OriginalCurrency)
	}
	if !exp.ExchangeRate.Equal(decimal.NewFromFloat(0.90)) {
		t.Errorf("rate not frozen: got %s", exp.ExchangeRate)
	}
}

func TestAddExpenseCustomMismatchRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	in := ExpenseInput{
		Description:  "Groceries",
		Amount:       decimal.NewFromFloat(100.00),
		SplitType:    models.SplitCustom,
		PaidBy:       ids["alice"],
		Participants: []string{ids["alice"], ids["bob"]},
		CustomSplits: map[string]decimal.Decimal{
			ids["alice"]: decimal.NewFromFloat(69.99),
			ids["bob"]:   decimal.NewFromFloat(30.00),
		},
	}
	_, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in)
	if !errs.IsValidation(err) {
		t.Fatalf("mismatched custom split: expected validation error, got %v", err)
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	trip, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"]}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	expID := trip.Expenses[0].ID

	in := equalDinner(ids["bob"], []string{ids["alice"], ids["bob"]})
	in.Amount = decimal.NewFromFloat(50.00)
	trip, err = f.expenses.UpdateExpense(ctx, tripID, expID, in)
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if got := trip.Expenses[0]; !got.Amount.Equal(decimal.NewFromFloat(50.00)) || got.PaidBy != ids["bob"] {
		t.Errorf("update not applied: %+v", got)
	}
	if !trip.Member(ids["alice"]).TotalPaid.IsZero() {
		t.Errorf("alice paid after reassignment: got %s, want 0", trip.Member(ids["alice"]).TotalPaid)
	}

	trip, err = f.expenses.DeleteExpense(ctx, tripID, expID)
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if len(trip.Expenses) != 0 {
		t.Errorf("expense not deleted: %d remain", len(trip.Expenses))
	}
	if !trip.Member(ids["bob"]).TotalPaid.IsZero() {
		t.Error("totals not refreshed after delete")
	}

	if _, err := f.expenses.DeleteExpense(ctx, tripID, expID); !errs.IsValidation(err) {
		t.Errorf("deleting twice: expected validation error, got %v", err)
	}
}

func TestUpdateExpenseKeepsFrozenRate(t *testing.T) {
	provider := &settableRates{rate: decimal.NewFromFloat(0.90)}
	f := newFixtureWithRates(provider)
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	in := equalDinner(ids["alice"], []string{ids["alice"], ids["bob"]})
	in.Currency = "USD"
	trip, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in)
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	expID := trip.Expenses[0].ID
	if !trip.Expenses[0].Amount.Equal(decimal.NewFromFloat(90.00)) {
		t.Fatalf("converted amount: got %s, want 90.00", trip.Expenses[0].Amount)
	}

	// The market moves; a description-only edit must not reprice.
	provider.rate = decimal.NewFromFloat(0.50)
	in.Description = "Dinner (corrected)"
	trip, err = f.expenses.UpdateExpense(ctx, tripID, expID, in)
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	exp := trip.Expense(expID)
	if !exp.ExchangeRate.Equal(decimal.NewFromFloat(0.90)) {
		t.Errorf("rate not frozen across edit: got %s, want 0.90", exp.ExchangeRate)
	}
	if !exp.Amount.Equal(decimal.NewFromFloat(90.00)) {
		t.Errorf("edit repriced the expense: got %s, want 90.00", exp.Amount)
	}

	// Changing the amount still converts at the frozen rate.
	in.Amount = decimal.NewFromFloat(200.00)
	trip, err = f.expenses.UpdateExpense(ctx, tripID, expID, in)
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	if exp = trip.Expense(expID); !exp.Amount.Equal(decimal.NewFromFloat(180.00)) {
		t.Errorf("amount edit at frozen rate: got %s, want 180.00", exp.Amount)
	}

	// Only a currency change resolves a fresh rate.
	in.Currency = "GBP"
	trip, err = f.expenses.UpdateExpense(ctx, tripID, expID, in)
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	exp = trip.Expense(expID)
	if !exp.ExchangeRate.Equal(decimal.NewFromFloat(0.50)) {
		t.Errorf("currency change should re-resolve the rate: got %s, want 0.50", exp.ExchangeRate)
	}
	if !exp.Amount.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("amount after currency change: got %s, want 100.00", exp.Amount)
	}
}

func TestCustomSplitMustCoverParticipants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	in := ExpenseInput{
		Description:  "Hotel",
		Amount:       decimal.NewFromFloat(100.00),
		SplitType:    models.SplitCustom,
		PaidBy:       ids["alice"],
		Participants: []string{ids["alice"], ids["bob"]},
		CustomSplits: map[string]decimal.Decimal{
			ids["alice"]: decimal.NewFromFloat(100.00),
		},
	}
	_, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in)
	if !errs.IsValidation(err) {
		t.Fatalf("participant without an entry: expected validation error, got %v", err)
	}

	// An explicit zero entry is fine; missing is not.
	in.CustomSplits[ids["bob"]] = decimal.Zero
	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in); err != nil {
		t.Errorf("explicit zero share rejected: %v", err)
	}
}

func TestCustomSplitConversionRounding(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	// Exact in USD: 33.34 + 33.33 + 33.33 = 100.00. At 0.90 each entry
	// rounds up to a sum of 90.01 against an amount of 90.00; the
	// conversion must not turn an exact split into a rejection.
	in := ExpenseInput{
		Description:  "Tour",
		Amount:       decimal.NewFromFloat(100.00),
		Currency:     "USD",
		SplitType:    models.SplitCustom,
		PaidBy:       ids["alice"],
		Participants: []string{ids["alice"], ids["bob"], ids["carol"]},
		CustomSplits: map[string]decimal.Decimal{
			ids["alice"]: decimal.NewFromFloat(33.34),
			ids["bob"]:   decimal.NewFromFloat(33.33),
			ids["carol"]: decimal.NewFromFloat(33.33),
		},
	}
	trip, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in)
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	exp := &trip.Expenses[0]
	if !exp.Amount.Equal(decimal.NewFromFloat(90.00)) {
		t.Fatalf("converted amount: got %s, want 90.00", exp.Amount)
	}
	sum := decimal.Zero
	for _, share := range exp.CustomSplits {
		sum = sum.Add(share)
	}
	if !sum.Equal(exp.Amount) {
		t.Errorf("converted shares sum to %s, want exactly %s", sum, exp.Amount)
	}

	// A genuinely mismatched split still fails after conversion.
	in.CustomSplits[ids["carol"]] = decimal.NewFromFloat(23.33)
	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"], in); !errs.IsValidation(err) {
		t.Errorf("mismatched split survived conversion: %v", err)
	}
}

func TestRemoveMemberCascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"], ids["carol"]})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	trip, err := f.trips.RemoveMember(ctx, tripID, ids["carol"])
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if trip.Member(ids["carol"]) != nil {
		t.Fatal("carol still on roster")
	}
	if trip.Expenses[0].HasParticipant(ids["carol"]) {
		t.Error("carol still a participant")
	}
	// The dinner now splits two ways.
	if !trip.Member(ids["bob"]).TotalOwed.Equal(decimal.NewFromFloat(50.00)) {
		t.Errorf("bob owed after cascade: got %s, want 50.00", trip.Member(ids["bob"]).TotalOwed)
	}

	// The payer cannot be removed while their expenses stand.
	if _, err := f.trips.RemoveMember(ctx, tripID, ids["alice"]); !errs.IsValidation(err) {
		t.Errorf("removing the payer: expected validation error, got %v", err)
	}
}

func confirmAll(t *testing.T, f fixture, tripID string, ids map[string]string) {
	t.Helper()
	for _, id := range ids {
		if _, err := f.trips.ToggleConfirmation(context.Background(), tripID, id); err != nil {
			t.Fatalf("ToggleConfirmation failed: %v", err)
		}
	}
}

func TestSettlementVisibilityGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"], ids["carol"]})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if _, err := f.settlements.Settlements(ctx, tripID); !errs.IsState(err) {
		t.Fatalf("settlements before confirmation: expected state error, got %v", err)
	}

	confirmAll(t, f, tripID, ids)

	transfers, err := f.settlements.Settlements(ctx, tripID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	for _, tr := range transfers {
		if tr.ToID != ids["alice"] {
			t.Errorf("all transfers should flow to alice, got %+v", tr)
		}
		if tr.IsReceived || tr.IsPaidViaApp {
			t.Errorf("fresh transfer should be pending, got %+v", tr)
		}
	}

	// Un-confirming one member hides settlements again.
	if _, err := f.trips.ToggleConfirmation(ctx, tripID, ids["bob"]); err != nil {
		t.Fatalf("ToggleConfirmation failed: %v", err)
	}
	if _, err := f.settlements.Settlements(ctx, tripID); !errs.IsState(err) {
		t.Errorf("after un-confirm: expected state error, got %v", err)
	}
}

func TestToggleReceived(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"], ids["carol"]})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	confirmAll(t, f, tripID, ids)

	// A bystander cannot confirm someone else's transfer.
	_, err := f.settlements.ToggleReceived(ctx, tripID, ids["carol"], ids["bob"], ids["alice"])
	if !errs.IsValidation(err) {
		t.Fatalf("third party toggle: expected validation error, got %v", err)
	}

	if _, err := f.settlements.ToggleReceived(ctx, tripID, ids["alice"], ids["bob"], ids["alice"]); err != nil {
		t.Fatalf("ToggleReceived failed: %v", err)
	}
	transfers, err := f.settlements.Settlements(ctx, tripID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	var bobToAlice *models.Settlement
	for i := range transfers {
		if transfers[i].FromID == ids["bob"] {
			bobToAlice = &transfers[i]
		}
	}
	if bobToAlice == nil || !bobToAlice.IsReceived {
		t.Fatalf("confirmation not overlaid: %+v", transfers)
	}

	// The flip is reversible.
	if _, err := f.settlements.ToggleReceived(ctx, tripID, ids["bob"], ids["bob"], ids["alice"]); err != nil {
		t.Fatalf("ToggleReceived (undo) failed: %v", err)
	}
	transfers, _ = f.settlements.Settlements(ctx, tripID)
	for _, tr := range transfers {
		if tr.IsReceived {
			t.Errorf("confirmation should be cleared, got %+v", tr)
		}
	}
}

func TestProviderPaymentFlow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"], ids["carol"]})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	confirmAll(t, f, tripID, ids)

	// Only the payer may initiate.
	if _, err := f.settlements.InitiatePayment(ctx, tripID, ids["alice"], ids["bob"], ids["alice"]); !errs.IsValidation(err) {
		t.Fatalf("payee initiating: expected validation error, got %v", err)
	}

	link, err := f.settlements.InitiatePayment(ctx, tripID, ids["bob"], ids["bob"], ids["alice"])
	if err != nil {
		t.Fatalf("InitiatePayment failed: %v", err)
	}
	if link == "" {
		t.Fatal("expected a payment link")
	}

	// A failed provider result changes nothing.
	trip, err := f.settlements.RecordProviderResult(ctx, tripID, payments.Result{
		Reference: payments.Reference(tripID, ids["bob"], ids["alice"]),
		Success:   false,
	})
	if err != nil {
		t.Fatalf("RecordProviderResult (failure) errored: %v", err)
	}
	if len(trip.SettlementReceipts) != 0 {
		t.Errorf("failed payment should not create a receipt: %+v", trip.SettlementReceipts)
	}

	// Success marks the settlement paid-via-app and received together.
	trip, err = f.settlements.RecordProviderResult(ctx, tripID, payments.Result{
		Reference: payments.Reference(tripID, ids["bob"], ids["alice"]),
		Success:   true,
	})
	if err != nil {
		t.Fatalf("RecordProviderResult failed: %v", err)
	}
	r := trip.Receipt(ids["bob"], ids["alice"])
	if r == nil || !r.IsPaidViaApp || !r.IsReceived {
		t.Fatalf("provider success not recorded atomically: %+v", r)
	}

	// A reference for another trip is rejected.
	_, err = f.settlements.RecordProviderResult(ctx, tripID, payments.Result{
		Reference: payments.Reference("other-trip", ids["bob"], ids["alice"]),
		Success:   true,
	})
	if !errs.IsValidation(err) {
		t.Errorf("foreign reference: expected validation error, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"], ids["bob"]})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	sum, err := f.settlements.Summary(ctx, tripID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if !sum.TotalSpent.Equal(decimal.NewFromFloat(100.00)) {
		t.Errorf("total spent: got %s, want 100.00", sum.TotalSpent)
	}
	if sum.ExpenseCount != 1 || len(sum.Balances) != 3 {
		t.Errorf("summary counts off: %+v", sum)
	}
}

func TestArchiveFreezesTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tripID, ids := activeTrip(t, f)

	if _, err := f.trips.ArchiveTrip(ctx, tripID); err != nil {
		t.Fatalf("ArchiveTrip failed: %v", err)
	}

	if _, err := f.expenses.AddExpense(ctx, tripID, ids["alice"],
		equalDinner(ids["alice"], []string{ids["alice"]})); !errs.IsState(err) {
		t.Errorf("expense on archived trip: expected state error, got %v", err)
	}
	if _, err := f.trips.AddMember(ctx, tripID, "Dana"); !errs.IsState(err) {
		t.Errorf("roster edit on archived trip: expected state error, got %v", err)
	}
	if _, err := f.trips.ArchiveTrip(ctx, tripID); !errs.IsState(err) {
		t.Errorf("double archive: expected state error, got %v", err)
	}
}
