package sale

import (
	"context"
	"errors"
	"time"

	"haulshare/internal/domain/lifecycle"
	"haulshare/internal/domain/shared/events"
	"haulshare/internal/domain/shared/money"
)

var (
	ErrSameParty        = errors.New("sale: buyer and seller must differ")
	ErrPartyRequired    = errors.New("sale: buyer and seller ids required")
	ErrAssetRequired    = errors.New("sale: asset id required")
	ErrInvalidOffer     = errors.New("sale: offer amount must be positive")
	ErrNotFound         = errors.New("sale: not found")
	ErrConcurrentUpdate = errors.New("sale: concurrent update detected")
)

type SaleID string

// Lifecycle states of the sale family.
const (
	StateListed         lifecycle.State = "LISTED"
	StateUnderOffer     lifecycle.State = "UNDER_OFFER"
	StateOfferAccepted  lifecycle.State = "OFFER_ACCEPTED"
	StatePaymentPending lifecycle.State = "PAYMENT_PENDING"
	StatePaid           lifecycle.State = "PAID"
	StateInTransfer     lifecycle.State = "IN_TRANSFER"
	StateCompleted      lifecycle.State = "COMPLETED"
	StateCancelled      lifecycle.State = "CANCELLED"
)

// Transitions is the sale family table. Rejecting an offer returns the sale
// to LISTED; COMPLETED and CANCELLED are terminal.
var Transitions = lifecycle.Table{
	StateListed:         {StateUnderOffer, StateCancelled},
	StateUnderOffer:     {StateOfferAccepted, StateListed, StateCancelled},
	StateOfferAccepted:  {StatePaymentPending, StateCancelled},
	StatePaymentPending: {StatePaid, StateCancelled},
	StatePaid:           {StateInTransfer, StateCancelled},
	StateInTransfer:     {StateCompleted, StateCancelled},
	StateCompleted:      {},
	StateCancelled:      {},
}

var machine = lifecycle.NewMachine("sale", Transitions)

// Machine exposes the family state machine for validation and lookups.
func Machine() *lifecycle.Machine { return machine }

// Sale is one buyer's offer/purchase lifecycle for an asset.
type Sale struct {
	ID       SaleID
	AssetID  string
	BuyerID  string
	SellerID string

	AskingPrice money.Money
	OfferAmount money.Money

	State   lifecycle.State
	History []lifecycle.HistoryEntry

	OfferAcceptedAt time.Time
	PaidAt          time.Time
	CompletedAt     time.Time
	CancelledAt     time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64

	events.EventRecorder
}

// Repository persists sales. Save must apply compare-and-set on Version.
type Repository interface {
	ByID(ctx context.Context, id SaleID) (*Sale, error)
	Create(ctx context.Context, s *Sale) error
	Save(ctx context.Context, s *Sale) error
	ListByAsset(ctx context.Context, assetID string) ([]*Sale, error)
}

type CreateParams struct {
	ID          SaleID
	AssetID     string
	BuyerID     string
	SellerID    string
	AskingPrice money.Money
	OfferAmount money.Money
	Now         time.Time
}

// New initializes a sale directly in UNDER_OFFER: the asset is already listed
// when a buyer places an offer, so the LISTED step is implied by the listing
// itself.
func New(params CreateParams) (*Sale, error) {
	if params.AssetID == "" {
		return nil, ErrAssetRequired
	}
	if params.BuyerID == "" || params.SellerID == "" {
		return nil, ErrPartyRequired
	}
	if params.BuyerID == params.SellerID {
		return nil, ErrSameParty
	}
	if !params.OfferAmount.Positive() {
		return nil, ErrInvalidOffer
	}

	now := params.Now.UTC()
	s := &Sale{
		ID:          params.ID,
		AssetID:     params.AssetID,
		BuyerID:     params.BuyerID,
		SellerID:    params.SellerID,
		AskingPrice: params.AskingPrice,
		OfferAmount: params.OfferAmount,
		State:       StateUnderOffer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.History = append(s.History, lifecycle.HistoryEntry{State: StateUnderOffer, At: now})
	s.Record(OfferPlaced{SaleID: s.ID, AssetID: s.AssetID, BuyerID: s.BuyerID, Offer: s.OfferAmount, At: now})
	return s, nil
}

// Apply applies a lifecycle transition with history and timestamp stamping.
func (s *Sale) Apply(next lifecycle.State, note string, now time.Time) error {
	if err := machine.ValidateTransition(s.State, next); err != nil {
		return err
	}
	now = now.UTC()
	s.State = next
	s.UpdatedAt = now
	s.History = append(s.History, lifecycle.HistoryEntry{State: next, At: now, Note: note})
	switch next {
	case StateOfferAccepted:
		s.OfferAcceptedAt = now
	case StatePaid:
		s.PaidAt = now
	case StateCompleted:
		s.CompletedAt = now
	case StateCancelled:
		s.CancelledAt = now
	}
	s.Record(Transitioned{SaleID: s.ID, AssetID: s.AssetID, State: next, Note: note, At: now})
	return nil
}

// Capabilities returns the derived capability snapshot for the current state.
func (s *Sale) Capabilities() (Capabilities, error) {
	return CapabilitiesFor(s.State)
}
