package availability

import (
	"context"
	"time"

	"homestay/internal/app/dto"
	"homestay/internal/app/policies"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainavailability "homestay/internal/domain/availability"
	domainlistings "homestay/internal/domain/listings"
	domainrange "homestay/internal/domain/shared/daterange"
)

const unavailableDatesKey = "availability.unavailable_dates"

// DefaultHorizonDays is the calendar-UI lookahead window.
const DefaultHorizonDays = 180

type UnavailableDatesQuery struct {
	ListingID   string
	HorizonDays int
}

func (q UnavailableDatesQuery) Key() string { return unavailableDatesKey }

type UnavailableDatesHandler struct {
	UoWFactory  uow.UoWFactory
	Cache       policies.AvailabilityCache
	HorizonDays int
	Now         func() time.Time
}

// Handle expands every blocked date and every pending/confirmed booking
// into individual days from today through the horizon. This feeds calendar
// rendering and is served from cache when possible; conflict decisions
// never read the cache.
func (h *UnavailableDatesHandler) Handle(ctx context.Context, q UnavailableDatesQuery) (dto.UnavailableDates, error) {
	listingID := domainlistings.ListingID(q.ListingID)
	if h.Cache != nil {
		if days, hit, err := h.Cache.Get(ctx, listingID); err == nil && hit {
			return dto.MapUnavailableDates(q.ListingID, days), nil
		}
	}

	unit, ctx, cleanup, err := readUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	defer cleanup()

	if _, err := unit.Listings().ByID(ctx, listingID); err != nil {
		return dto.UnavailableDates{}, err
	}

	horizon := q.HorizonDays
	if horizon <= 0 {
		horizon = h.HorizonDays
	}
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	today := domainrange.Day(h.now())
	until := today.AddDate(0, 0, horizon)

	reserved, err := reservedRanges(ctx, unit, listingID, today, until)
	if err != nil {
		return dto.UnavailableDates{}, err
	}
	blocked, err := unit.Calendar().BlockedDates(ctx, listingID, today, until)
	if err != nil {
		return dto.UnavailableDates{}, err
	}

	days := domainavailability.UnavailableDays(today, horizon, reserved, blocked)
	if h.Cache != nil {
		_ = h.Cache.Set(ctx, listingID, days)
	}
	return dto.MapUnavailableDates(q.ListingID, days), nil
}

func (h *UnavailableDatesHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ queries.Handler[UnavailableDatesQuery, dto.UnavailableDates] = (*UnavailableDatesHandler)(nil)
