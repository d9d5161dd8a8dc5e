package uow

import (
	"context"

	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// reservation-day ledger write and the booking insert commit together, so
// the non-overlap invariant holds at the point of commit, not only at the
// point of the earlier availability read.
type UnitOfWork interface {
	Listings() domainlistings.Repository
	Booking() domainbooking.Repository
	Payments() domainpayments.Repository
	Calendar() domainavailability.CalendarStore

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
