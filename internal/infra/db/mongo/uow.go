package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homestay/internal/app/uow"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
	PaymentsRepo domainpayments.Repository
	Calendar     domainavailability.CalendarStore
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
		db:       f.DB,
		session:  session,
		listings: f.ListingsRepo,
		booking:  f.BookingRepo,
		payments: f.PaymentsRepo,
		calendar: f.Calendar,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	listings domainlistings.Repository
	booking  domainbooking.Repository
	payments domainpayments.Repository
	calendar domainavailability.CalendarStore
}

func (u *Unit) Listings() domainlistings.Repository {
	return u.listings
}

func (u *Unit) Booking() domainbooking.Repository {
	return u.booking
}

func (u *Unit) Payments() domainpayments.Repository {
	return u.payments
}

func (u *Unit) Calendar() domainavailability.CalendarStore {
	return u.calendar
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
