package booking

import (
	"context"
	"time"

	"homestay/internal/app/dto"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
)

const guestBookingsKey = "booking.by_guest"

type GuestBookingsQuery struct {
	GuestID string
}

func (q GuestBookingsQuery) Key() string { return guestBookingsKey }

type GuestBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *GuestBookingsHandler) Handle(ctx context.Context, q GuestBookingsQuery) (dto.BookingCollection, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.BookingCollection{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.BookingCollection{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	items, err := unit.Booking().ListByGuest(ctx, q.GuestID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	out := dto.BookingCollection{Items: make([]dto.BookingSummary, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBookingSummary(b, b.CanReview(now)))
	}
	return out, nil
}

var _ queries.Handler[GuestBookingsQuery, dto.BookingCollection] = (*GuestBookingsHandler)(nil)

const hostListingBookingsKey = "booking.by_listing"

type HostListingBookingsQuery struct {
	ListingID string
	ActorID   string
	From      time.Time
	To        time.Time
}

func (q HostListingBookingsQuery) Key() string { return hostListingBookingsKey }

type HostListingBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

// Handle lists a listing's pending and confirmed bookings for its host,
// ordered by check-in. Anyone else gets ErrActorForbidden.
func (h *HostListingBookingsHandler) Handle(ctx context.Context, q HostListingBookingsQuery) (dto.BookingCollection, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.BookingCollection{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.BookingCollection{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if q.ActorID == "" || q.ActorID != string(listing.Host) {
		return dto.BookingCollection{}, ErrActorForbidden
	}

	holding := []domainbooking.State{domainbooking.StatePending, domainbooking.StateConfirmed}
	items, err := unit.Booking().ListByListing(ctx, listing.ID, q.From, q.To, holding)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now().UTC()
	}
	out := dto.BookingCollection{Items: make([]dto.BookingSummary, 0, len(items))}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBookingSummary(b, b.CanReview(now)))
	}
	return out, nil
}

var _ queries.Handler[HostListingBookingsQuery, dto.BookingCollection] = (*HostListingBookingsHandler)(nil)
