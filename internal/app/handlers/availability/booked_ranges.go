package availability

import (
	"context"
	"errors"
	"time"

	"homestay/internal/app/dto"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainlistings "homestay/internal/domain/listings"
)

const bookedRangesKey = "availability.booked_ranges"

// ErrNotListingHost rejects calendar reads by anyone but the owning host.
var ErrNotListingHost = errors.New("availability: actor does not own this listing")

type BookedRangesQuery struct {
	ListingID string
	ActorID   string
	From      time.Time
	To        time.Time
}

func (q BookedRangesQuery) Key() string { return bookedRangesKey }

type BookedRangesHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the listing's booked ranges ordered by check-in, filtered
// by overlap with [from, to) when bounds are given. Hosts use this to
// review their calendar.
func (h *BookedRangesHandler) Handle(ctx context.Context, q BookedRangesQuery) (dto.BookedRanges, error) {
	unit, ctx, cleanup, err := readUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookedRanges{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.BookedRanges{}, err
	}
	if q.ActorID == "" || q.ActorID != string(listing.Host) {
		return dto.BookedRanges{}, ErrNotListingHost
	}

	reserved, err := reservedRanges(ctx, unit, listing.ID, q.From, q.To)
	if err != nil {
		return dto.BookedRanges{}, err
	}
	return dto.MapBookedRanges(q.ListingID, reserved), nil
}

var _ queries.Handler[BookedRangesQuery, dto.BookedRanges] = (*BookedRangesHandler)(nil)
