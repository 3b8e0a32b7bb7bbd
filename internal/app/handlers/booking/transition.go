package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"haulshare/internal/app/commands"
	"haulshare/internal/app/outbox"
	"haulshare/internal/app/uow"
	"haulshare/internal/domain/lifecycle"
	domainreservation "haulshare/internal/domain/reservation"
)

const transitionReservationKey = "reservation.transition"

var ErrNotParticipant = errors.New("booking: actor is not a participant of this reservation")

// TransitionReservationCommand applies one lifecycle transition under the
// compare-and-set discipline: the state read at the start of the operation
// must still hold when the save lands, or the whole command fails.
type TransitionReservationCommand struct {
	ReservationID string
	ActorID       string
	Next          string
	Note          string
}

func (c TransitionReservationCommand) Key() string { return transitionReservationKey }

type TransitionReservationResult struct {
	ReservationID string                        `json:"reservation_id"`
	State         string                        `json:"state"`
	Capabilities  domainreservation.Capabilities `json:"capabilities"`
}

type TransitionReservationHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *TransitionReservationHandler) Handle(ctx context.Context, cmd TransitionReservationCommand) (*TransitionReservationResult, error) {
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

	res, err := unit.Reservations().ByID(ctx, domainreservation.ReservationID(cmd.ReservationID))
	if err != nil {
		return nil, err
	}
	if cmd.ActorID != res.RenterID && cmd.ActorID != res.HostID {
		return nil, ErrNotParticipant
	}

	next := lifecycle.State(strings.ToUpper(strings.TrimSpace(cmd.Next)))
	now := time.Now().UTC()
	if next == domainreservation.StateCancelled {
		err = res.Cancel(cmd.Note, cmd.ActorID, now)
	} else {
		err = res.Apply(next, cmd.Note, now)
	}
	if err != nil {
		return nil, err
	}

	// Save is conditional on the version the reservation was read at; a
	// concurrent transition makes it fail rather than clobber.
	if err := unit.Reservations().Save(ctx, res); err != nil {
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

	caps, err := res.Capabilities()
	if err != nil {
		return nil, err
	}
	return &TransitionReservationResult{
		ReservationID: string(res.ID),
		State:         string(res.State),
		Capabilities:  caps,
	}, nil
}

func (h *TransitionReservationHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[TransitionReservationCommand, *TransitionReservationResult] = (*TransitionReservationHandler)(nil)
