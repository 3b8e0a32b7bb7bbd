package booking

import (
	"context"
	"sort"

	"haulshare/internal/app/dto"
	handlersupport "haulshare/internal/app/handlers/support"
	"haulshare/internal/app/queries"
	"haulshare/internal/app/uow"
	domainreservation "haulshare/internal/domain/reservation"
)

const (
	getReservationKey     = "reservation.get"
	listMyReservationsKey = "reservation.list_mine"
)

type GetReservationQuery struct {
	ReservationID string
	ActorID       string
}

func (q GetReservationQuery) Key() string { return getReservationKey }

type GetReservationHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetReservationHandler) Handle(ctx context.Context, q GetReservationQuery) (dto.ReservationDetail, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationDetail{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	res, err := unit.Reservations().ByID(execCtx, domainreservation.ReservationID(q.ReservationID))
	if err != nil {
		return dto.ReservationDetail{}, err
	}
	if q.ActorID != "" && q.ActorID != res.RenterID && q.ActorID != res.HostID {
		return dto.ReservationDetail{}, ErrNotParticipant
	}
	caps, err := res.Capabilities()
	if err != nil {
		return dto.ReservationDetail{}, err
	}
	return dto.MapReservationDetail(res, caps), nil
}

type ListMyReservationsQuery struct {
	RenterID string
}

func (q ListMyReservationsQuery) Key() string { return listMyReservationsKey }

type ListMyReservationsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMyReservationsHandler) Handle(ctx context.Context, q ListMyReservationsQuery) (dto.ReservationCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReservationCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Reservations().ListByRenter(execCtx, q.RenterID)
	if err != nil {
		return dto.ReservationCollection{}, err
	}

	out := make([]dto.ReservationDetail, 0, len(items))
	for _, res := range items {
		caps, err := res.Capabilities()
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		out = append(out, dto.MapReservationDetail(res, caps))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return dto.ReservationCollection{Items: out}, nil
}

var _ queries.Handler[GetReservationQuery, dto.ReservationDetail] = (*GetReservationHandler)(nil)
var _ queries.Handler[ListMyReservationsQuery, dto.ReservationCollection] = (*ListMyReservationsHandler)(nil)
