package ledger

import (
	"triptally/internal/errs"
	"triptally/internal/models"
)

// AllConfirmed reports whether every current member has marked themselves
// done adding expenses. Un-confirming any one member flips it back to
// false immediately.
func AllConfirmed(trip *models.Trip) bool {
	for _, m := range trip.Members {
		if !m.HasCompletedExpenses {
			return false
		}
	}
	return true
}

// SettlementsVisible reports whether settlement results may be exposed to
// callers. Computation is not gated, only visibility, so confirming the
// last member reveals correct settlements with no recomputation lag.
func SettlementsVisible(trip *models.Trip) bool {
	return trip.Phase == models.PhaseActive && AllConfirmed(trip)
}

// CanStart gates the explicit setup → active transition.
func CanStart(trip *models.Trip) error {
	if trip.Phase != models.PhaseSetup {
		return errs.Statef("trip %q is %s, not setup", trip.ID, trip.Phase)
	}
	if len(trip.Members) == 0 {
		return errs.Validationf("trip %q cannot start with an empty roster", trip.ID)
	}
	return nil
}

// CanEditRoster gates member additions and removals. Roster edits are
// allowed during setup and active, never after completion.
func CanEditRoster(trip *models.Trip) error {
	if trip.Phase == models.PhaseCompleted {
		return errs.Statef("trip %q is completed", trip.ID)
	}
	return nil
}

// CanRecordExpenses gates expense creation, editing and deletion.
func CanRecordExpenses(trip *models.Trip) error {
	if trip.Phase != models.PhaseActive {
		return errs.Statef("trip %q is %s; expenses require an active trip", trip.ID, trip.Phase)
	}
	return nil
}

// CanToggleConfirmation gates a member flipping their own
// HasCompletedExpenses flag, in either direction.
func CanToggleConfirmation(trip *models.Trip) error {
	if trip.Phase != models.PhaseActive {
		return errs.Statef("trip %q is %s; confirmation requires an active trip", trip.ID, trip.Phase)
	}
	return nil
}

// CanToggleSettlement gates settlement confirmation mutations. A transfer
// is only actionable once it is visible.
func CanToggleSettlement(trip *models.Trip) error {
	if trip.Phase != models.PhaseActive {
		return errs.Statef("trip %q is %s; settlements require an active trip", trip.ID, trip.Phase)
	}
	if !AllConfirmed(trip) {
		return errs.Statef("trip %q: settlements are hidden until every member confirms", trip.ID)
	}
	return nil
}
