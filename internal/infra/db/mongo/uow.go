package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"haulshare/internal/app/uow"
	domainavailability "haulshare/internal/domain/availability"
	domainreservation "haulshare/internal/domain/reservation"
	domainsale "haulshare/internal/domain/sale"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ReservationRepo domainreservation.Repository
	SaleRepo        domainsale.Repository
	BlockRepo       domainavailability.BlockRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		reservations: f.ReservationRepo,
		sales:        f.SaleRepo,
		blocks:       f.BlockRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
