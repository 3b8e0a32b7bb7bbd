package sale

import (
	"context"
	"errors"
	"time"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/middleware"
	"haulshare/internal/app/outbox"
	"haulshare/internal/app/uow"
	domainsale "haulshare/internal/domain/sale"
	"haulshare/internal/domain/shared/money"
)

const placeOfferKey = "sale.place_offer"

var ErrUnitOfWorkRequired = errors.New("sale: unit of work required")

// PlaceOfferCommand opens a sale lifecycle for an already-listed asset. The
// sale starts directly in UNDER_OFFER; the LISTED step is implied by the
// listing the buyer responded to.
type PlaceOfferCommand struct {
	CommandID       string
	AssetID         string
	BuyerID         string
	SellerID        string
	AskingCents     int64
	OfferCents      int64
	Currency        string
	IdempotencyKeyV string
}

func (c PlaceOfferCommand) Key() string { return placeOfferKey }

func (c PlaceOfferCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c PlaceOfferCommand) ResultPrototype() any { return &PlaceOfferResult{} }

type PlaceOfferResult struct {
	SaleID string `json:"sale_id"`
	State  string `json:"state"`
}

type PlaceOfferHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *PlaceOfferHandler) Handle(ctx context.Context, cmd PlaceOfferCommand) (*PlaceOfferResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	asking, err := money.New(cmd.AskingCents, cmd.Currency)
	if err != nil {
		return nil, err
	}
	offer, err := money.New(cmd.OfferCents, cmd.Currency)
	if err != nil {
		return nil, err
	}

	s, err := domainsale.New(domainsale.CreateParams{
		ID:          domainsale.SaleID(cmd.CommandID),
		AssetID:     cmd.AssetID,
		BuyerID:     cmd.BuyerID,
		SellerID:    cmd.SellerID,
		AskingPrice: asking,
		OfferAmount: offer,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Sales().Create(ctx, s); err != nil {
		return nil, err
	}

	pending := s.PendingEvents()
	s.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &PlaceOfferResult{SaleID: string(s.ID), State: string(s.State)}, nil
}

func (h *PlaceOfferHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[PlaceOfferCommand, *PlaceOfferResult] = (*PlaceOfferHandler)(nil)
var _ middleware.IdempotentCommand = (*PlaceOfferCommand)(nil)
