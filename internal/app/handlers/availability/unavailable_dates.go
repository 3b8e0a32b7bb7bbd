package availability

import (
	"context"
	"time"

	"haulshare/internal/app/dto"
	handlersupport "haulshare/internal/app/handlers/support"
	"haulshare/internal/app/queries"
	"haulshare/internal/app/uow"
	domainavailability "haulshare/internal/domain/availability"
)

const unavailableDatesKey = "availability.unavailable_dates"

// UnavailableDatesQuery asks for every committed date of an asset inside an
// inclusive date window. The answer is display-only: creation re-checks.
type UnavailableDatesQuery struct {
	AssetID string
	From    time.Time
	To      time.Time
}

func (q UnavailableDatesQuery) Key() string { return unavailableDatesKey }

type UnavailableDatesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UnavailableDatesHandler) Handle(ctx context.Context, q UnavailableDatesQuery) (dto.UnavailableDates, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	engine := domainavailability.Engine{Reservations: unit.Reservations(), Blocks: unit.Blocks()}
	dates, err := engine.UnavailableDates(execCtx, q.AssetID, q.From, q.To)
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	return dto.UnavailableDates{
		AssetID: q.AssetID,
		From:    q.From.UTC().Format(time.DateOnly),
		To:      q.To.UTC().Format(time.DateOnly),
		Dates:   dates,
	}, nil
}

var _ queries.Handler[UnavailableDatesQuery, dto.UnavailableDates] = (*UnavailableDatesHandler)(nil)
