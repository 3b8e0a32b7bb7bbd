package memory

import (
	"context"
	"errors"

	"haulshare/internal/app/uow"
	domainavailability "haulshare/internal/domain/availability"
	domainreservation "haulshare/internal/domain/reservation"
	domainsale "haulshare/internal/domain/sale"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ReservationRepo domainreservation.Repository
	SaleRepo        domainsale.Repository
	BlockRepo       domainavailability.BlockRepository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; atomicity for the
// conflict guarantee lives inside ReservationRepository.Create.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ReservationRepo == nil || f.SaleRepo == nil || f.BlockRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		reservations: f.ReservationRepo,
		sales:        f.SaleRepo,
		blocks:       f.BlockRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	reservations domainreservation.Repository
	sales        domainsale.Repository
	blocks       domainavailability.BlockRepository
}

func (u *Unit) Reservations() domainreservation.Repository {
	return u.reservations
}

func (u *Unit) Sales() domainsale.Repository {
	return u.sales
}

func (u *Unit) Blocks() domainavailability.BlockRepository {
	return u.blocks
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}
