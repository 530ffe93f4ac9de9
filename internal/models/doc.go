// Package models defines the trip document and its substructures.
//
// # Document model
//
// The canonical unit of state is the whole Trip document: members, expenses
// and settlement receipts are value-like substructures with no identity
// lifecycle outside it. The store persists the document as a single JSON
// blob guarded by a monotonically increasing Version; every mutation is
// "read snapshot, apply delta, write back".
//
// # Money
//
// All amounts are decimal.Decimal. Expense.Amount is always in the trip's
// base currency, rounded to cents at creation time; OriginalAmount and
// OriginalCurrency are display-only provenance, and ExchangeRate is frozen
// when the expense is recorded, never re-fetched.
//
// # Design principles
//
//  1. Relationships use ID strings, never pointers, to keep the document
//     serializable and free of cycles.
//  2. Member.TotalPaid/TotalOwed are a persisted convenience view; the
//     ledger recomputes them from the expense list on every read, so they
//     can never be more authoritative than the expenses themselves.
package models
