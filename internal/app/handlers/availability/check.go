package availability

import (
	"context"
	"time"

	"homestay/internal/app/dto"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainrange "homestay/internal/domain/shared/daterange"
)

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	ListingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle answers "is [checkIn, checkOut) free for this listing?". A missing
// listing is NotFound, never "fully available"; a zero-night range is a
// validation failure, never silently available.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.AvailabilityDecision, error) {
	unit, ctx, cleanup, err := readUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityDecision{}, err
	}
	defer cleanup()

	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.AvailabilityDecision{}, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.AvailabilityDecision{}, err
	}

	reserved, err := reservedRanges(ctx, unit, listing.ID, dr.CheckIn, dr.CheckOut)
	if err != nil {
		return dto.AvailabilityDecision{}, err
	}
	blocked, err := unit.Calendar().BlockedDates(ctx, listing.ID, dr.CheckIn, dr.CheckOut)
	if err != nil {
		return dto.AvailabilityDecision{}, err
	}

	available, reason := domainavailability.Decide(dr, reserved, blocked)
	return dto.AvailabilityDecision{Available: available, Reason: string(reason)}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.AvailabilityDecision] = (*CheckAvailabilityHandler)(nil)

func readUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	return unit, ctx, func() { _ = unit.Rollback(ctx) }, nil
}

func reservedRanges(ctx context.Context, unit uow.UnitOfWork, listingID domainlistings.ListingID, from, to time.Time) ([]domainavailability.ReservedRange, error) {
	holding := []domainbooking.State{domainbooking.StatePending, domainbooking.StateConfirmed}
	items, err := unit.Booking().ListByListing(ctx, listingID, from, to, holding)
	if err != nil {
		return nil, err
	}
	reserved := make([]domainavailability.ReservedRange, 0, len(items))
	for _, b := range items {
		reserved = append(reserved, domainavailability.ReservedRange{BookingID: b.ID, Range: b.Range, Status: b.State})
	}
	return reserved, nil
}
