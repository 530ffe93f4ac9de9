// Package notify turns snapshot changes into notification triggers for an
// external dispatcher. The engine never renders or delivers messages; it
// diffs the before/after documents and forwards the minimal payload a
// dispatcher needs to build one.
package notify

import (
	"context"
	"log/slog"

	"triptally/internal/ledger"
	"triptally/internal/models"
)

// EventType identifies a notification trigger.
type EventType string

const (
	// EventExpenseAdded fires for each expense present in the new
	// snapshot but not the old one.
	EventExpenseAdded EventType = "expense_added"
	// EventMemberJoined fires for each member new to the roster.
	EventMemberJoined EventType = "member_joined"
	// EventTripStarted fires on the setup → active transition.
	EventTripStarted EventType = "trip_started"
	// EventAllConfirmed fires when the last unconfirmed member confirms.
	EventAllConfirmed EventType = "all_confirmed"
)

// Event is the minimal payload forwarded to the dispatcher.
type Event struct {
	Type     EventType
	TripID   string
	TripName string
	TripCode string

	// EntityID is the affected expense or member, when applicable.
	EntityID string

	// Amount is the formatted base-currency amount for expense events.
	Amount string
}

// Dispatcher delivers events. Delivery lives outside this system (push
// gateways, email); implementations must tolerate duplicate events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

// LogDispatcher writes events to the structured log. The default sink
// when no external dispatcher is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, ev Event) error {
	slog.Info("notification trigger",
		"type", ev.Type,
		"trip_id", ev.TripID,
		"trip_name", ev.TripName,
		"entity_id", ev.EntityID,
		"amount", ev.Amount,
	)
	return nil
}

// Diff computes the notification triggers between two snapshots of the
// same trip. A nil old snapshot yields no events: the first sight of a
// document is not a change.
func Diff(old, latest *models.Trip) []Event {
	if old == nil || latest == nil {
		return nil
	}

	var events []Event
	base := func(t EventType) Event {
		return Event{Type: t, TripID: latest.ID, TripName: latest.Name, TripCode: latest.Code}
	}

	for _, m := range latest.Members {
		if old.Member(m.ID) == nil {
			ev := base(EventMemberJoined)
			ev.EntityID = m.ID
			events = append(events, ev)
		}
	}

	for i := range latest.Expenses {
		e := &latest.Expenses[i]
		if old.Expense(e.ID) == nil {
			ev := base(EventExpenseAdded)
			ev.EntityID = e.ID
			ev.Amount = e.Amount.StringFixed(2) + " " + latest.BaseCurrency
			events = append(events, ev)
		}
	}

	if old.Phase == models.PhaseSetup && latest.Phase == models.PhaseActive {
		events = append(events, base(EventTripStarted))
	}

	if len(latest.Members) > 0 &&
		!ledger.AllConfirmed(old) && ledger.AllConfirmed(latest) {
		events = append(events, base(EventAllConfirmed))
	}

	return events
}

// Watcher bridges syncer snapshot deliveries to a dispatcher.
type Watcher struct {
	dispatcher Dispatcher
}

// NewWatcher creates a Watcher forwarding to the given dispatcher.
func NewWatcher(d Dispatcher) *Watcher {
	return &Watcher{dispatcher: d}
}

// OnSnapshot diffs the snapshots and dispatches each resulting event.
// Dispatch runs off the mutation path; failures are logged, never
// surfaced to the writer that triggered them.
func (w *Watcher) OnSnapshot(old, latest *models.Trip) {
	events := Diff(old, latest)
	if len(events) == 0 {
		return
	}
	go func() {
		for _, ev := range events {
			if err := w.dispatcher.Dispatch(context.Background(), ev); err != nil {
				slog.Error("failed to dispatch notification",
					"type", ev.Type, "trip_id", ev.TripID, "error", err)
			}
		}
	}()
}
