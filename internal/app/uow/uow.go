package uow

import (
	"context"

	domainavailability "haulshare/internal/domain/availability"
	domainreservation "haulshare/internal/domain/reservation"
	domainsale "haulshare/internal/domain/sale"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Reservations() domainreservation.Repository
	Sales() domainsale.Repository
	Blocks() domainavailability.BlockRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
