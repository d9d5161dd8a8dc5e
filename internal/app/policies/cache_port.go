package policies

import (
	"context"
	"time"

	domainlistings "homestay/internal/domain/listings"
)

// AvailabilityCache memoizes the expanded unavailable-day set per listing.
// The calendar view is allowed to be coarser than the conflict check, so a
// short TTL cache in front of it is safe. Implementations must treat a
// miss and an unreachable cache the same way: (nil, false, nil).
type AvailabilityCache interface {
	Get(ctx context.Context, listingID domainlistings.ListingID) ([]time.Time, bool, error)
	Set(ctx context.Context, listingID domainlistings.ListingID, days []time.Time) error
	Invalidate(ctx context.Context, listingID domainlistings.ListingID) error
}
