package sale

import (
	"errors"
	"testing"
	"time"

	"haulshare/internal/domain/lifecycle"
	"haulshare/internal/domain/shared/money"
)

func newTestSale(t *testing.T) *Sale {
	t.Helper()
	s, err := New(CreateParams{
		ID:          "sale-1",
		AssetID:     "asset-1",
		BuyerID:     "buyer-1",
		SellerID:    "seller-1",
		AskingPrice: money.Must(2500000, "USD"),
		OfferAmount: money.Must(2300000, "USD"),
		Now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	t.Run("starts in UNDER_OFFER", func(t *testing.T) {
		s := newTestSale(t)
		if s.State != StateUnderOffer {
			t.Fatalf("State = %s, want UNDER_OFFER", s.State)
		}
		if len(s.History) != 1 || s.History[0].State != StateUnderOffer {
			t.Fatalf("History = %+v, want single UNDER_OFFER entry", s.History)
		}
		if got := len(s.PendingEvents()); got != 1 {
			t.Fatalf("pending events = %d, want 1", got)
		}
	})

	tests := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"missing asset", func(p *CreateParams) { p.AssetID = "" }, ErrAssetRequired},
		{"missing buyer", func(p *CreateParams) { p.BuyerID = "" }, ErrPartyRequired},
		{"buyer equals seller", func(p *CreateParams) { p.BuyerID = "seller-1" }, ErrSameParty},
		{"zero offer", func(p *CreateParams) { p.OfferAmount = money.Money{Currency: "USD"} }, ErrInvalidOffer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := CreateParams{
				ID: "sale-1", AssetID: "asset-1", BuyerID: "buyer-1", SellerID: "seller-1",
				AskingPrice: money.Must(100, "USD"), OfferAmount: money.Must(90, "USD"), Now: time.Now(),
			}
			tt.mutate(&params)
			if _, err := New(params); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("full purchase path", func(t *testing.T) {
		s := newTestSale(t)
		now := s.CreatedAt
		steps := []lifecycle.State{StateOfferAccepted, StatePaymentPending, StatePaid, StateInTransfer, StateCompleted}
		for i, next := range steps {
			now = now.Add(time.Hour)
			if err := s.Apply(next, "", now); err != nil {
				t.Fatalf("step %d to %s: %v", i, next, err)
			}
		}
		if s.State != StateCompleted {
			t.Fatalf("State = %s, want COMPLETED", s.State)
		}
		if s.OfferAcceptedAt.IsZero() || s.PaidAt.IsZero() || s.CompletedAt.IsZero() {
			t.Fatal("milestone timestamps must be stamped")
		}
		if len(s.History) != len(steps)+1 {
			t.Fatalf("history length = %d, want %d", len(s.History), len(steps)+1)
		}
	})

	t.Run("rejected offer returns the sale to LISTED", func(t *testing.T) {
		s := newTestSale(t)
		if err := s.Apply(StateListed, "seller declined", time.Now()); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if s.State != StateListed {
			t.Fatalf("State = %s, want LISTED", s.State)
		}
	})

	t.Run("cannot pay before acceptance", func(t *testing.T) {
		s := newTestSale(t)
		var ierr *lifecycle.InvalidTransitionError
		if err := s.Apply(StatePaid, "", time.Now()); !errors.As(err, &ierr) {
			t.Fatalf("got %v, want *InvalidTransitionError", err)
		}
		if s.State != StateUnderOffer {
			t.Fatalf("State mutated to %s", s.State)
		}
	})
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		state     lifecycle.State
		messaging bool
		payout    bool
		hidden    bool
		terminal  bool
	}{
		{StateListed, false, false, false, false},
		{StateUnderOffer, true, false, true, false},
		{StateOfferAccepted, true, false, true, false},
		{StatePaid, true, false, true, false},
		{StateCompleted, false, true, true, true},
		{StateCancelled, false, false, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			caps, err := CapabilitiesFor(tt.state)
			if err != nil {
				t.Fatalf("CapabilitiesFor: %v", err)
			}
			if caps.MessagingEnabled != tt.messaging || caps.PayoutReleasable != tt.payout ||
				caps.ListingHidden != tt.hidden || caps.Terminal != tt.terminal {
				t.Fatalf("CapabilitiesFor(%s) = %+v", tt.state, caps)
			}
		})
	}
}
