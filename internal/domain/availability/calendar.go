package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"homestay/internal/domain/booking"
	"homestay/internal/domain/listings"
	"homestay/internal/domain/shared/daterange"
)

var (
	// ErrDateConflict is the store-level double-booking signal: at most one
	// pending-or-confirmed booking may hold any (listing, day), enforced at
	// commit time by the reservation-day ledger.
	ErrDateConflict = errors.New("availability: dates already reserved")
)

// Reason explains why a range is unavailable.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonBooked  Reason = "dates_booked"
	ReasonBlocked Reason = "dates_blocked"
)

// ReservedRange is a read view over bookings that currently hold dates.
type ReservedRange struct {
	BookingID booking.BookingID
	Range     daterange.DateRange
	Status    booking.State
}

// CalendarStore is the durable record of per-listing unavailable days: the
// reservation-day ledger written under bookings and the host-entered
// blocked dates. It is a read-optimized view plus the commit-time
// uniqueness guard, not an independent source of truth.
type CalendarStore interface {
	// ReserveDays writes one ledger row per occupied day on behalf of a
	// booking, failing with ErrDateConflict if any day is already held.
	ReserveDays(ctx context.Context, listingID listings.ListingID, bookingID booking.BookingID, days []time.Time) error
	// ReleaseDays removes every ledger row held by the booking.
	ReleaseDays(ctx context.Context, bookingID booking.BookingID) error

	BlockDate(ctx context.Context, listingID listings.ListingID, day time.Time) error
	UnblockDate(ctx context.Context, listingID listings.ListingID, day time.Time) error
	// BlockedDates returns host-blocked days inside [from, to); zero bounds
	// are unbounded.
	BlockedDates(ctx context.Context, listingID listings.ListingID, from, to time.Time) ([]time.Time, error)
}

// Decide is the pure availability decision over the calendar facts for one
// listing: false with a reason when any pending/confirmed booking overlaps
// the half-open request or any blocked day falls inside it.
func Decide(request daterange.DateRange, reserved []ReservedRange, blocked []time.Time) (bool, Reason) {
	for _, r := range reserved {
		if !holdsDates(r.Status) {
			continue
		}
		if r.Range.Overlaps(request) {
			return false, ReasonBooked
		}
	}
	for _, day := range blocked {
		if request.ContainsDate(day) {
			return false, ReasonBlocked
		}
	}
	return true, ReasonNone
}

// UnavailableDays expands bookings and blocked dates into the deduplicated,
// sorted set of occupied days inside [from, from+horizon). This feeds
// calendar UIs and may be coarser than Decide.
func UnavailableDays(from time.Time, horizon int, reserved []ReservedRange, blocked []time.Time) []time.Time {
	window := daterange.DateRange{CheckIn: daterange.Day(from), CheckOut: daterange.Day(from).AddDate(0, 0, horizon)}
	seen := make(map[time.Time]struct{})
	for _, r := range reserved {
		if !holdsDates(r.Status) {
			continue
		}
		clamped, ok := r.Range.Clamp(window.CheckIn, window.CheckOut)
		if !ok {
			continue
		}
		for _, day := range clamped.Days() {
			seen[day] = struct{}{}
		}
	}
	for _, day := range blocked {
		day = daterange.Day(day)
		if window.ContainsDate(day) {
			seen[day] = struct{}{}
		}
	}
	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func holdsDates(s booking.State) bool {
	return s == booking.StatePending || s == booking.StateConfirmed
}
