package sale

import (
	"context"
	"errors"
	"strings"
	"time"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/dto"
	handlersupport "haulshare/internal/app/handlers/support"
	"haulshare/internal/app/outbox"
	"haulshare/internal/app/queries"
	"haulshare/internal/app/uow"
	"haulshare/internal/domain/lifecycle"
	domainsale "haulshare/internal/domain/sale"
)

const (
	transitionSaleKey = "sale.transition"
	getSaleKey        = "sale.get"
)

var ErrNotParticipant = errors.New("sale: actor is not a participant of this sale")

type TransitionSaleCommand struct {
	SaleID  string
	ActorID string
	Next    string
	Note    string
}

func (c TransitionSaleCommand) Key() string { return transitionSaleKey }

type TransitionSaleResult struct {
	SaleID       string                 `json:"sale_id"`
	State        string                 `json:"state"`
	Capabilities domainsale.Capabilities `json:"capabilities"`
}

type TransitionSaleHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *TransitionSaleHandler) Handle(ctx context.Context, cmd TransitionSaleCommand) (*TransitionSaleResult, error) {
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

	s, err := unit.Sales().ByID(ctx, domainsale.SaleID(cmd.SaleID))
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != s.BuyerID && cmd.ActorID != s.SellerID {
		return nil, ErrNotParticipant
	}

	next := lifecycle.State(strings.ToUpper(strings.TrimSpace(cmd.Next)))
	if err := s.Apply(next, cmd.Note, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := unit.Sales().Save(ctx, s); err != nil {
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

	caps, err := s.Capabilities()
	if err != nil {
		return nil, err
	}
	return &TransitionSaleResult{SaleID: string(s.ID), State: string(s.State), Capabilities: caps}, nil
}

func (h *TransitionSaleHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

type GetSaleQuery struct {
	SaleID  string
	ActorID string
}

func (q GetSaleQuery) Key() string { return getSaleKey }

type GetSaleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetSaleHandler) Handle(ctx context.Context, q GetSaleQuery) (dto.SaleDetail, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SaleDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	s, err := unit.Sales().ByID(execCtx, domainsale.SaleID(q.SaleID))
	if err != nil {
		return dto.SaleDetail{}, err
	}
	if q.ActorID != "" && q.ActorID != s.BuyerID && q.ActorID != s.SellerID {
		return dto.SaleDetail{}, ErrNotParticipant
	}
	caps, err := s.Capabilities()
	if err != nil {
		return dto.SaleDetail{}, err
	}
	return dto.MapSaleDetail(s, caps), nil
}

var _ commands.Handler[TransitionSaleCommand, *TransitionSaleResult] = (*TransitionSaleHandler)(nil)
var _ queries.Handler[GetSaleQuery, dto.SaleDetail] = (*GetSaleHandler)(nil)
