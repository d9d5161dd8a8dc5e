package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homestay/internal/app/policies"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	"homestay/internal/infra/storage/memory"
)

type env struct {
	factory memory.Factory
	outbox  *memory.Outbox
	cache   *fakeCache
}

func newEnv() *env {
	return &env{
		factory: memory.NewFactory(),
		outbox:  memory.NewOutbox(),
		cache:   &fakeCache{},
	}
}

func (e *env) seedListing(t *testing.T, id string) *domainlistings.Listing {
	t.Helper()
	listing := &domainlistings.Listing{
		ID:               domainlistings.ListingID(id),
		Host:             "host-1",
		Title:            "Seaside flat",
		NightlyRateCents: 10000,
		Currency:         "USD",
		GuestsLimit:      4,
		State:            domainlistings.ListingActive,
	}
	require.NoError(t, e.factory.ListingsRepo.Save(context.Background(), listing))
	return listing
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func stayDay(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

type fakeProvider struct {
	calls int
	err   error
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, bookingID domainbooking.BookingID, amountCents int64, currency string, description string) (policies.CheckoutSession, error) {
	p.calls++
	if p.err != nil {
		return policies.CheckoutSession{}, p.err
	}
	return policies.CheckoutSession{
		SessionID: "cs_" + string(bookingID),
		URL:       "https://checkout.test/" + string(bookingID),
	}, nil
}

type fakeCache struct {
	invalidated []domainlistings.ListingID
}

func (c *fakeCache) Get(ctx context.Context, listingID domainlistings.ListingID) ([]time.Time, bool, error) {
	return nil, false, nil
}

func (c *fakeCache) Set(ctx context.Context, listingID domainlistings.ListingID, days []time.Time) error {
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, listingID domainlistings.ListingID) error {
	c.invalidated = append(c.invalidated, listingID)
	return nil
}
