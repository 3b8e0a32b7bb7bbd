package reservation

import "haulshare/internal/domain/lifecycle"

// Capabilities is the derived snapshot consumed by location reveal, messaging,
// calendar and payout collaborators. It is recomputed from state on every
// read and never persisted, so it cannot go stale.
type Capabilities struct {
	AddressMasked    bool              `json:"address_masked"`
	MessagingEnabled bool              `json:"messaging_enabled"`
	CalendarLocked   bool              `json:"calendar_locked"`
	PayoutReleasable bool              `json:"payout_releasable"`
	Terminal         bool              `json:"terminal"`
	Next             []lifecycle.State `json:"next"`
}

// AddressMasked hides the asset's precise location until the renter has paid.
func AddressMasked(s lifecycle.State) bool {
	switch s {
	case StatePaid, StateInProgress, StateReturnPending, StateCompleted:
		return false
	}
	return true
}

// MessagingEnabled permits the renter/host message thread.
func MessagingEnabled(s lifecycle.State) bool {
	switch s {
	case StateRequested, StateHostApproved, StatePaid, StateInProgress, StateReturnPending:
		return true
	}
	return false
}

// CalendarLocked marks the states that commit the asset's calendar. The
// availability engine treats exactly these reservations as blocking.
func CalendarLocked(s lifecycle.State) bool {
	switch s {
	case StatePaid, StateInProgress, StateReturnPending:
		return true
	}
	return false
}

// PayoutReleasable allows the host payout to be dispatched.
func PayoutReleasable(s lifecycle.State) bool {
	return s == StateCompleted
}

// CapabilitiesFor computes the full snapshot, failing with an IntegrityError
// for a state outside the family table.
func CapabilitiesFor(s lifecycle.State) (Capabilities, error) {
	next, err := machine.Allowed(s)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{
		AddressMasked:    AddressMasked(s),
		MessagingEnabled: MessagingEnabled(s),
		CalendarLocked:   CalendarLocked(s),
		PayoutReleasable: PayoutReleasable(s),
		Terminal:         machine.Terminal(s),
		Next:             next,
	}, nil
}
