package booking

import (
	"context"
	"errors"

	"homestay/internal/app/policies"
	"homestay/internal/app/uow"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainrange "homestay/internal/domain/shared/daterange"
)

// ErrActorForbidden marks an authenticated actor that is neither the
// booking's guest nor the listing's host.
var ErrActorForbidden = errors.New("booking: actor is not a party to this booking")

func beginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if factory == nil {
		return nil, false, ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	return unit, true, nil
}

func checkCalendar(ctx context.Context, unit uow.UnitOfWork, listingID domainlistings.ListingID, dr domainrange.DateRange) (bool, domainavailability.Reason, error) {
	holding := []domainbooking.State{domainbooking.StatePending, domainbooking.StateConfirmed}
	existing, err := unit.Booking().ListByListing(ctx, listingID, dr.CheckIn, dr.CheckOut, holding)
	if err != nil {
		return false, domainavailability.ReasonNone, err
	}
	reserved := make([]domainavailability.ReservedRange, 0, len(existing))
	for _, b := range existing {
		reserved = append(reserved, domainavailability.ReservedRange{BookingID: b.ID, Range: b.Range, Status: b.State})
	}
	blocked, err := unit.Calendar().BlockedDates(ctx, listingID, dr.CheckIn, dr.CheckOut)
	if err != nil {
		return false, domainavailability.ReasonNone, err
	}
	ok, reason := domainavailability.Decide(dr, reserved, blocked)
	return ok, reason, nil
}

func invalidateCache(ctx context.Context, cache policies.AvailabilityCache, listingID domainlistings.ListingID) {
	if cache == nil {
		return
	}
	_ = cache.Invalidate(ctx, listingID)
}

// actorRole resolves how the actor relates to a booking and its listing.
type actorRole int

const (
	roleNone actorRole = iota
	roleGuest
	roleHost
)

func resolveActor(actorID string, b *domainbooking.Booking, listing *domainlistings.Listing) actorRole {
	if actorID != "" && actorID == b.GuestID {
		return roleGuest
	}
	if listing != nil && actorID != "" && actorID == string(listing.Host) {
		return roleHost
	}
	return roleNone
}
