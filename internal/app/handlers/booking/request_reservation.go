package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/middleware"
	"haulshare/internal/app/outbox"
	"haulshare/internal/app/uow"
	"haulshare/internal/domain/asset"
	domainavailability "haulshare/internal/domain/availability"
	domainreservation "haulshare/internal/domain/reservation"
	domainschedule "haulshare/internal/domain/schedule"
	"haulshare/internal/domain/shared/money"
)

const requestReservationKey = "reservation.request"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// RequestReservationCommand carries the raw client fields for a new
// reservation. The schedule builder decides which fields apply based on the
// asset's scheduling mode.
type RequestReservationCommand struct {
	CommandID       string
	AssetID         string
	RenterID        string
	StartDate       string
	EndDate         string
	StartTime       string
	EndTime         string
	TotalCents      int64
	Currency        string
	Notes           string
	IdempotencyKeyV string
}

func (c RequestReservationCommand) Key() string { return requestReservationKey }

func (c RequestReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestReservationCommand) ResultPrototype() any { return &RequestReservationResult{} }

type RequestReservationResult struct {
	ReservationID string `json:"reservation_id"`
	State         string `json:"state"`
}

// RequestReservationHandler is the only path that may create a reservation.
// It runs the schedule builder, enforces the asset's booking limits, checks
// the candidate window for conflicts, and persists through a repository that
// re-confirms the window at write time.
type RequestReservationHandler struct {
	UoWFactory  uow.UoWFactory
	AssetConfig asset.ConfigProvider
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
}

func (h *RequestReservationHandler) Handle(ctx context.Context, cmd RequestReservationCommand) (*RequestReservationResult, error) {
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

	cfg, err := h.AssetConfig.Scheduling(ctx, cmd.AssetID)
	if err != nil {
		return nil, err
	}

	built, err := domainschedule.Build(domainschedule.Input{
		StartDate: cmd.StartDate,
		EndDate:   cmd.EndDate,
		StartTime: cmd.StartTime,
		EndTime:   cmd.EndTime,
	}, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := enforceLimits(built, cfg, now); err != nil {
		return nil, err
	}

	engine := domainavailability.Engine{Reservations: unit.Reservations(), Blocks: unit.Blocks()}
	if err := engine.CheckConflict(ctx, cmd.AssetID, built.Window); err != nil {
		return nil, err
	}

	total, err := money.New(cmd.TotalCents, cmd.Currency)
	if err != nil {
		return nil, err
	}

	res, err := domainreservation.New(domainreservation.CreateParams{
		ID:       domainreservation.ReservationID(cmd.CommandID),
		AssetID:  cmd.AssetID,
		RenterID: cmd.RenterID,
		HostID:   cfg.HostID,
		Schedule: built,
		Total:    total,
		Notes:    cmd.Notes,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	// Create re-runs the conflict check under the store's write lock so a
	// concurrent creation for an overlapping window loses with the same
	// structured error a check-time rejection produces.
	if err := unit.Reservations().Create(ctx, res); err != nil {
		return nil, err
	}

	pending := res.PendingEvents()
	res.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &RequestReservationResult{ReservationID: string(res.ID), State: string(res.State)}, nil
}

// enforceLimits applies the asset's configured rental-length, notice, and
// horizon rules. These are validation failures, not conflicts: the window is
// malformed for this asset regardless of what the calendar holds.
func enforceLimits(built domainschedule.Built, cfg asset.Scheduling, now time.Time) error {
	start := built.Window.Start
	if built.Window.Granularity == domainschedule.GranularityRanged && !built.Pickup.IsZero() {
		start = built.Pickup
	}
	if start.Before(now) {
		return validationErr("start_date", "window starts in the past")
	}
	if cfg.MinNoticeHours > 0 {
		earliest := now.Add(time.Duration(cfg.MinNoticeHours) * time.Hour)
		if start.Before(earliest) {
			return validationErr("start_date", fmt.Sprintf("requires %dh advance notice", cfg.MinNoticeHours))
		}
	}
	if cfg.MaxHorizonDays > 0 {
		latest := domainschedule.DateOf(now).AddDate(0, 0, cfg.MaxHorizonDays)
		if built.Window.Start.After(latest) {
			return validationErr("start_date", fmt.Sprintf("starts beyond the %d-day booking horizon", cfg.MaxHorizonDays))
		}
	}
	switch built.Window.Granularity {
	case domainschedule.GranularityRanged:
		if cfg.MinDays > 0 && built.Days < cfg.MinDays {
			return validationErr("end_date", fmt.Sprintf("below the %d-day minimum", cfg.MinDays))
		}
		if cfg.MaxDays > 0 && built.Days > cfg.MaxDays {
			return validationErr("end_date", fmt.Sprintf("above the %d-day maximum", cfg.MaxDays))
		}
	case domainschedule.GranularityTimed:
		if cfg.MinHours > 0 && built.Hours < cfg.MinHours {
			return validationErr("end_time", fmt.Sprintf("below the %.0fh minimum", cfg.MinHours))
		}
		if cfg.MaxHours > 0 && built.Hours > cfg.MaxHours {
			return validationErr("end_time", fmt.Sprintf("above the %.0fh maximum", cfg.MaxHours))
		}
	}
	return nil
}

func validationErr(field, reason string) error {
	return &domainschedule.ValidationError{Field: field, Reason: reason}
}

func (h *RequestReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestReservationCommand, *RequestReservationResult] = (*RequestReservationHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestReservationCommand)(nil)
