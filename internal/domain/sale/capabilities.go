package sale

import "haulshare/internal/domain/lifecycle"

// Capabilities is the derived snapshot for a sale's current state, recomputed
// on every read and never persisted.
type Capabilities struct {
	MessagingEnabled bool              `json:"messaging_enabled"`
	PayoutReleasable bool              `json:"payout_releasable"`
	ListingHidden    bool              `json:"listing_hidden"`
	Terminal         bool              `json:"terminal"`
	Next             []lifecycle.State `json:"next"`
}

// MessagingEnabled permits the buyer/seller message thread.
func MessagingEnabled(s lifecycle.State) bool {
	switch s {
	case StateUnderOffer, StateOfferAccepted, StatePaymentPending, StatePaid, StateInTransfer:
		return true
	}
	return false
}

// PayoutReleasable allows the seller payout to be dispatched.
func PayoutReleasable(s lifecycle.State) bool {
	return s == StateCompleted
}

// ListingHidden removes the asset from public sale listings in every state
// except LISTED.
func ListingHidden(s lifecycle.State) bool {
	return s != StateListed
}

// CapabilitiesFor computes the full snapshot, failing with an IntegrityError
// for a state outside the family table.
func CapabilitiesFor(s lifecycle.State) (Capabilities, error) {
	next, err := machine.Allowed(s)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{
		MessagingEnabled: MessagingEnabled(s),
		PayoutReleasable: PayoutReleasable(s),
		ListingHidden:    ListingHidden(s),
		Terminal:         machine.Terminal(s),
		Next:             next,
	}, nil
}
