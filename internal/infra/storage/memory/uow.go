package memory

import (
	"context"
	"errors"

	"homestay/internal/app/uow"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.Repository
	BookingRepo  domainbooking.Repository
	PaymentsRepo domainpayments.Repository
	Calendar     domainavailability.CalendarStore
}

// NewFactory builds a fully populated in-memory factory.
func NewFactory() Factory {
	return Factory{
		ListingsRepo: NewListingRepository(),
		BookingRepo:  NewBookingRepository(),
		PaymentsRepo: NewPaymentRepository(),
		Calendar:     NewCalendarStore(),
	}
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; the calendar store
// still enforces the one-holder-per-day rule.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingRepo == nil || f.PaymentsRepo == nil || f.Calendar == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings: f.ListingsRepo,
		booking:  f.BookingRepo,
		payments: f.PaymentsRepo,
		calendar: f.Calendar,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
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
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
