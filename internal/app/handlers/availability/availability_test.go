package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityapp "homestay/internal/app/handlers/availability"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpricing "homestay/internal/domain/pricing"
	"homestay/internal/domain/shared/daterange"
	"homestay/internal/infra/storage/memory"
)

type env struct {
	factory memory.Factory
	cache   *stubCache
}

func newEnv() *env {
	return &env{factory: memory.NewFactory(), cache: &stubCache{}}
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func stayDay(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func (e *env) seedListing(t *testing.T, id string) *domainlistings.Listing {
	t.Helper()
	listing := &domainlistings.Listing{
		ID:               domainlistings.ListingID(id),
		Host:             "host-1",
		Title:            "Lakeside cabin",
		NightlyRateCents: 15000,
		Currency:         "USD",
		GuestsLimit:      6,
		State:            domainlistings.ListingActive,
	}
	require.NoError(t, e.factory.ListingsRepo.Save(context.Background(), listing))
	return listing
}

func (e *env) seedBooking(t *testing.T, id string, in, out int, state domainbooking.State) {
	t.Helper()
	ctx := context.Background()
	dr, err := daterange.New(stayDay(in), stayDay(out))
	require.NoError(t, err)
	price, err := domainpricing.Quote(15000, "USD", dr.Nights(), domainpricing.DefaultCommissionBP)
	require.NoError(t, err)
	bk, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		ListingID: "lst-1",
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		Price:     price,
		CreatedAt: fixedNow(),
	})
	require.NoError(t, err)
	bk.State = state
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingRepo.Save(ctx, bk))
	if bk.HoldsDates() {
		require.NoError(t, e.factory.Calendar.ReserveDays(ctx, "lst-1", bk.ID, dr.Days()))
	}
}

type stubCache struct {
	days        []time.Time
	hit         bool
	sets        int
	invalidated int
}

func (c *stubCache) Get(ctx context.Context, listingID domainlistings.ListingID) ([]time.Time, bool, error) {
	return c.days, c.hit, nil
}

func (c *stubCache) Set(ctx context.Context, listingID domainlistings.ListingID, days []time.Time) error {
	c.days = days
	c.hit = true
	c.sets++
	return nil
}

func (c *stubCache) Invalidate(ctx context.Context, listingID domainlistings.ListingID) error {
	c.days = nil
	c.hit = false
	c.invalidated++
	return nil
}

func TestCheckAvailability_Free(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	h := &availabilityapp.CheckAvailabilityHandler{UoWFactory: e.factory}

	decision, err := h.Handle(context.Background(), availabilityapp.CheckAvailabilityQuery{
		ListingID: "lst-1", CheckIn: stayDay(10), CheckOut: stayDay(13),
	})
	require.NoError(t, err)
	assert.True(t, decision.Available)
	assert.Empty(t, decision.Reason)
}

func TestCheckAvailability_BookedOverlap(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	e.seedBooking(t, "bk-1", 12, 15, domainbooking.StateConfirmed)
	h := &availabilityapp.CheckAvailabilityHandler{UoWFactory: e.factory}

	decision, err := h.Handle(context.Background(), availabilityapp.CheckAvailabilityQuery{
		ListingID: "lst-1", CheckIn: stayDay(10), CheckOut: stayDay(13),
	})
	require.NoError(t, err)
	assert.False(t, decision.Available)
	assert.Equal(t, string(domainavailability.ReasonBooked), decision.Reason)
}

func TestCheckAvailability_CancelledBookingFreesDates(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	e.seedBooking(t, "bk-1", 12, 15, domainbooking.StateCancelled)
	h := &availabilityapp.CheckAvailabilityHandler{UoWFactory: e.factory}

	decision, err := h.Handle(context.Background(), availabilityapp.CheckAvailabilityQuery{
		ListingID: "lst-1", CheckIn: stayDay(10), CheckOut: stayDay(13),
	})
	require.NoError(t, err)
	assert.True(t, decision.Available)
}

func TestCheckAvailability_BlockedDay(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	require.NoError(t, e.factory.Calendar.BlockDate(context.Background(), "lst-1", stayDay(11)))
	h := &availabilityapp.CheckAvailabilityHandler{UoWFactory: e.factory}

	decision, err := h.Handle(context.Background(), availabilityapp.CheckAvailabilityQuery{
		ListingID: "lst-1", CheckIn: stayDay(10), CheckOut: stayDay(13),
	})
	require.NoError(t, err)
	assert.False(t, decision.Available)
	assert.Equal(t, string(domainavailability.ReasonBlocked), decision.Reason)
}

func TestCheckAvailability_UnknownListing(t *testing.T) {
	e := newEnv()
	h := &availabilityapp.CheckAvailabilityHandler{UoWFactory: e.factory}

	_, err := h.Handle(context.Background(), availabilityapp.CheckAvailabilityQuery{
		ListingID: "lst-1", CheckIn: stayDay(10), CheckOut: stayDay(13),
	})
	assert.ErrorIs(t, err, domainlistings.ErrListingNotFound)
}

func TestCheckAvailability_InvalidRange(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	h := &availabilityapp.CheckAvailabilityHandler{UoWFactory: e.factory}

	_, err := h.Handle(context.Background(), availabilityapp.CheckAvailabilityQuery{
		ListingID: "lst-1", CheckIn: stayDay(13), CheckOut: stayDay(10),
	})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestUnavailableDates_ExpandsBookingsAndBlocks(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	e.seedBooking(t, "bk-1", 10, 12, domainbooking.StateConfirmed)
	require.NoError(t, e.factory.Calendar.BlockDate(context.Background(), "lst-1", stayDay(20)))

	h := &availabilityapp.UnavailableDatesHandler{UoWFactory: e.factory, Now: fixedNow}
	out, err := h.Handle(context.Background(), availabilityapp.UnavailableDatesQuery{ListingID: "lst-1"})
	require.NoError(t, err)

	assert.Equal(t, "lst-1", out.ListingID)
	assert.Equal(t, []string{"2026-09-10", "2026-09-11", "2026-09-20"}, out.Dates)
}

func TestUnavailableDates_ServedFromCacheOnHit(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	e.seedBooking(t, "bk-1", 10, 12, domainbooking.StateConfirmed)

	h := &availabilityapp.UnavailableDatesHandler{UoWFactory: e.factory, Cache: e.cache, Now: fixedNow}

	first, err := h.Handle(context.Background(), availabilityapp.UnavailableDatesQuery{ListingID: "lst-1"})
	require.NoError(t, err)
	require.Equal(t, 1, e.cache.sets)

	// A booking added behind the cache's back is invisible until invalidation.
	e.seedBooking(t, "bk-2", 14, 15, domainbooking.StateConfirmed)
	second, err := h.Handle(context.Background(), availabilityapp.UnavailableDatesQuery{ListingID: "lst-1"})
	require.NoError(t, err)
	assert.Equal(t, first.Dates, second.Dates)

	require.NoError(t, e.cache.Invalidate(context.Background(), "lst-1"))
	third, err := h.Handle(context.Background(), availabilityapp.UnavailableDatesQuery{ListingID: "lst-1"})
	require.NoError(t, err)
	assert.Contains(t, third.Dates, "2026-09-14")
}

func TestUnavailableDates_HorizonClampsResults(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	require.NoError(t, e.factory.Calendar.BlockDate(context.Background(), "lst-1", stayDay(20)))

	h := &availabilityapp.UnavailableDatesHandler{UoWFactory: e.factory, Now: fixedNow}
	out, err := h.Handle(context.Background(), availabilityapp.UnavailableDatesQuery{ListingID: "lst-1", HorizonDays: 7})
	require.NoError(t, err)
	assert.Empty(t, out.Dates)
}

func TestBookedRanges_HostOnly(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	e.seedBooking(t, "bk-1", 10, 13, domainbooking.StateConfirmed)
	h := &availabilityapp.BookedRangesHandler{UoWFactory: e.factory}

	out, err := h.Handle(context.Background(), availabilityapp.BookedRangesQuery{ListingID: "lst-1", ActorID: "host-1"})
	require.NoError(t, err)
	require.Len(t, out.Ranges, 1)
	assert.Equal(t, stayDay(10), out.Ranges[0].Start)
	assert.Equal(t, stayDay(13), out.Ranges[0].End)
	assert.Equal(t, string(domainbooking.StateConfirmed), out.Ranges[0].Status)

	_, err = h.Handle(context.Background(), availabilityapp.BookedRangesQuery{ListingID: "lst-1", ActorID: "guest-1"})
	assert.ErrorIs(t, err, availabilityapp.ErrNotListingHost)
}

func TestBlockDates_HostBlocksAndUnblocks(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	ctx := context.Background()

	block := &availabilityapp.BlockDatesHandler{UoWFactory: e.factory, Cache: e.cache}
	_, err := block.Handle(ctx, availabilityapp.BlockDatesCommand{
		ListingID: "lst-1",
		ActorID:   "host-1",
		Dates:     []time.Time{stayDay(11), stayDay(11), stayDay(12)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, e.cache.invalidated)

	blocked, err := e.factory.Calendar.BlockedDates(ctx, "lst-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{stayDay(11), stayDay(12)}, blocked)

	unblock := &availabilityapp.UnblockDatesHandler{UoWFactory: e.factory, Cache: e.cache}
	_, err = unblock.Handle(ctx, availabilityapp.UnblockDatesCommand{
		ListingID: "lst-1",
		ActorID:   "host-1",
		Dates:     []time.Time{stayDay(11)},
	})
	require.NoError(t, err)

	blocked, err = e.factory.Calendar.BlockedDates(ctx, "lst-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{stayDay(12)}, blocked)
}

func TestBlockDates_NonHostForbidden(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")

	block := &availabilityapp.BlockDatesHandler{UoWFactory: e.factory}
	_, err := block.Handle(context.Background(), availabilityapp.BlockDatesCommand{
		ListingID: "lst-1",
		ActorID:   "guest-1",
		Dates:     []time.Time{stayDay(11)},
	})
	assert.ErrorIs(t, err, availabilityapp.ErrNotListingHost)
}
