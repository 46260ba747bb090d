package admission

import "rollcall/internal/attendance"

// Reconcile decides how a new submission relates to the attendee's prior
// record for the event. This is pure domain logic - no I/O, no side effects.
//
//   - no prior record: insert the new one
//   - prior record still valid: refuse, the earlier check-in stands
//   - prior record invalid: overwrite, delete it and insert the new one
//
// A valid prior refuses even a submission that would itself be rejected.
func Reconcile(prior *attendance.Record) Resolution {
	switch {
	case prior == nil:
		return Resolution{Action: ActionInsert}
	case prior.IsValid:
		return Resolution{Action: ActionRefuse, Prior: prior}
	default:
		return Resolution{Action: ActionOverwrite, Prior: prior}
	}
}
