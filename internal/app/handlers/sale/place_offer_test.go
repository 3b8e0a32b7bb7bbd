package sale

import (
	"context"
	"errors"
	"testing"

	"haulshare/internal/domain/lifecycle"
	domainsale "haulshare/internal/domain/sale"
	"haulshare/internal/infra/storage/memory"
)

type saleFixture struct {
	sales      *memory.SaleRepository
	factory    memory.Factory
	place      *PlaceOfferHandler
	transition *TransitionSaleHandler
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	blocks := memory.NewBlockRepository()
	sales := memory.NewSaleRepository()
	factory := memory.Factory{
		ReservationRepo: memory.NewReservationRepository(blocks),
		SaleRepo:        sales,
		BlockRepo:       blocks,
	}
	box := memory.NewOutbox()
	return &saleFixture{
		sales:      sales,
		factory:    factory,
		place:      &PlaceOfferHandler{UoWFactory: factory, Outbox: box},
		transition: &TransitionSaleHandler{UoWFactory: factory, Outbox: box},
	}
}

func offerCommand(id string) PlaceOfferCommand {
	return PlaceOfferCommand{
		CommandID:   id,
		AssetID:     "asset-1",
		BuyerID:     "buyer-1",
		SellerID:    "seller-1",
		AskingCents: 2500000,
		OfferCents:  2300000,
		Currency:    "USD",
	}
}

func TestPlaceOffer(t *testing.T) {
	fx := newSaleFixture(t)
	ctx := context.Background()

	t.Run("opens the sale in UNDER_OFFER", func(t *testing.T) {
		result, err := fx.place.Handle(ctx, offerCommand("sale-1"))
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}
		if result.SaleID != "sale-1" || result.State != string(domainsale.StateUnderOffer) {
			t.Fatalf("result = %+v", result)
		}
		stored, err := fx.sales.ByID(ctx, "sale-1")
		if err != nil {
			t.Fatalf("ByID: %v", err)
		}
		if stored.OfferAmount.Amount != 2300000 || stored.OfferAmount.Currency != "USD" {
			t.Fatalf("OfferAmount = %v", stored.OfferAmount)
		}
	})

	t.Run("buyer equals seller is rejected", func(t *testing.T) {
		cmd := offerCommand("sale-2")
		cmd.BuyerID = "seller-1"
		if _, err := fx.place.Handle(ctx, cmd); !errors.Is(err, domainsale.ErrSameParty) {
			t.Fatalf("got %v, want ErrSameParty", err)
		}
	})

	t.Run("non-positive offer is rejected", func(t *testing.T) {
		cmd := offerCommand("sale-3")
		cmd.OfferCents = 0
		if _, err := fx.place.Handle(ctx, cmd); !errors.Is(err, domainsale.ErrInvalidOffer) {
			t.Fatalf("got %v, want ErrInvalidOffer", err)
		}
	})
}

func TestTransitionSale(t *testing.T) {
	fx := newSaleFixture(t)
	ctx := context.Background()

	if _, err := fx.place.Handle(ctx, offerCommand("sale-1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := fx.transition.Handle(ctx, TransitionSaleCommand{SaleID: "sale-1", ActorID: "intruder", Next: "OFFER_ACCEPTED"})
		if !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("got %v, want ErrNotParticipant", err)
		}
	})

	t.Run("seller accepts the offer", func(t *testing.T) {
		result, err := fx.transition.Handle(ctx, TransitionSaleCommand{SaleID: "sale-1", ActorID: "seller-1", Next: "offer_accepted"})
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}
		if result.State != string(domainsale.StateOfferAccepted) {
			t.Fatalf("State = %s", result.State)
		}
	})

	t.Run("skipping payment is rejected", func(t *testing.T) {
		_, err := fx.transition.Handle(ctx, TransitionSaleCommand{SaleID: "sale-1", ActorID: "buyer-1", Next: "COMPLETED"})
		var ierr *lifecycle.InvalidTransitionError
		if !errors.As(err, &ierr) {
			t.Fatalf("got %v, want *InvalidTransitionError", err)
		}
	})

	t.Run("completes through the full path", func(t *testing.T) {
		for _, next := range []string{"PAYMENT_PENDING", "PAID", "IN_TRANSFER", "COMPLETED"} {
			if _, err := fx.transition.Handle(ctx, TransitionSaleCommand{SaleID: "sale-1", ActorID: "buyer-1", Next: next}); err != nil {
				t.Fatalf("transition to %s: %v", next, err)
			}
		}
		stored, err := fx.sales.ByID(ctx, "sale-1")
		if err != nil {
			t.Fatalf("ByID: %v", err)
		}
		if stored.State != domainsale.StateCompleted || stored.CompletedAt.IsZero() {
			t.Fatalf("stored = %s completed=%v", stored.State, stored.CompletedAt)
		}
	})

	t.Run("unknown sale", func(t *testing.T) {
		_, err := fx.transition.Handle(ctx, TransitionSaleCommand{SaleID: "sale-nope", ActorID: "buyer-1", Next: "PAID"})
		if !errors.Is(err, domainsale.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})
}

func TestGetSale(t *testing.T) {
	fx := newSaleFixture(t)
	ctx := context.Background()

	if _, err := fx.place.Handle(ctx, offerCommand("sale-1")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := &GetSaleHandler{UoWFactory: fx.factory}

	detail, err := h.Handle(ctx, GetSaleQuery{SaleID: "sale-1", ActorID: "buyer-1"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if detail.ID != "sale-1" || detail.State != "UNDER_OFFER" {
		t.Fatalf("detail = %+v", detail)
	}

	if _, err := h.Handle(ctx, GetSaleQuery{SaleID: "sale-1", ActorID: "intruder"}); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("got %v, want ErrNotParticipant", err)
	}
}
