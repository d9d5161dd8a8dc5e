package payments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/app/commands"
	paymentsapp "homestay/internal/app/handlers/payments"
	"homestay/internal/app/middleware"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
	domainpricing "homestay/internal/domain/pricing"
	"homestay/internal/domain/shared/daterange"
	"homestay/internal/infra/storage/memory"
)

type env struct {
	factory memory.Factory
	outbox  *memory.Outbox
}

func newEnv() *env {
	return &env{factory: memory.NewFactory(), outbox: memory.NewOutbox()}
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
}

func stayDay(d int) time.Time {
	return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
}

// seedPendingBooking creates a listing, a pending booking holding
// [stayDay(10), stayDay(13)), and its pending payment under session cs_1.
func seedPendingBooking(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()

	listing := &domainlistings.Listing{
		ID:               "lst-1",
		Host:             "host-1",
		Title:            "Seaside flat",
		NightlyRateCents: 10000,
		Currency:         "USD",
		GuestsLimit:      4,
		State:            domainlistings.ListingActive,
	}
	require.NoError(t, e.factory.ListingsRepo.Save(ctx, listing))

	dr, err := daterange.New(stayDay(10), stayDay(13))
	require.NoError(t, err)
	price, err := domainpricing.Quote(listing.NightlyRateCents, listing.Currency, dr.Nights(), domainpricing.DefaultCommissionBP)
	require.NoError(t, err)

	bk, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        "bk-1",
		ListingID: listing.ID,
		GuestID:   "guest-1",
		Range:     dr,
		Guests:    2,
		Price:     price,
		CreatedAt: fixedNow(),
	})
	require.NoError(t, err)
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingRepo.Save(ctx, bk))
	require.NoError(t, e.factory.Calendar.ReserveDays(ctx, listing.ID, bk.ID, dr.Days()))

	payment := domainpayments.NewPayment(domainpayments.CreateParams{
		ID:          "pay-bk-1",
		BookingID:   bk.ID,
		SessionID:   "cs_1",
		AmountCents: price.TotalCents(),
		Currency:    "USD",
		CreatedAt:   fixedNow(),
	})
	require.NoError(t, e.factory.PaymentsRepo.Save(ctx, payment))
}

func newHandler(e *env) *paymentsapp.ReconcileHandler {
	return &paymentsapp.ReconcileHandler{
		UoWFactory: e.factory,
		Outbox:     e.outbox,
		Now:        fixedNow,
	}
}

func reconcile(t *testing.T, e *env, ev domainpayments.ProviderEvent) *paymentsapp.ReconcileResult {
	t.Helper()
	result, err := newHandler(e).Handle(context.Background(), paymentsapp.ReconcileEventCommand{Event: ev})
	require.NoError(t, err)
	return result
}

func completedEvent() domainpayments.CheckoutCompleted {
	return domainpayments.CheckoutCompleted{
		ID:        "evt-1",
		SessionID: "cs_1",
		IntentID:  "pi_1",
		BookingID: "bk-1",
	}
}

func TestReconcile_CheckoutCompletedConfirms(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)

	result := reconcile(t, e, completedEvent())
	assert.True(t, result.Applied)
	assert.Equal(t, "confirmed", result.Outcome)

	ctx := context.Background()
	bk, err := e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, bk.State)

	payment, err := e.factory.PaymentsRepo.ByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayments.StatusSucceeded, payment.Status)
	assert.Equal(t, "pi_1", payment.PaymentIntentID)
}

func TestReconcile_CheckoutCompletedRedelivery(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)

	reconcile(t, e, completedEvent())
	result := reconcile(t, e, completedEvent())

	assert.True(t, result.Applied)
	assert.Equal(t, "already_confirmed", result.Outcome)

	bk, err := e.factory.BookingRepo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, bk.State)
}

func TestReconcile_CheckoutCompletedForCancelledBooking(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)

	ctx := context.Background()
	bk, err := e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	require.NoError(t, bk.Cancel("guest_cancelled", fixedNow()))
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingRepo.Save(ctx, bk))

	result := reconcile(t, e, completedEvent())
	assert.True(t, result.Applied)
	assert.Equal(t, "needs_refund", result.Outcome)

	// The charge went through and must be tracked even though the booking
	// will never be honored.
	payment, err := e.factory.PaymentsRepo.ByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayments.StatusSucceeded, payment.Status)

	bk, err = e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, bk.State)
}

func TestReconcile_CheckoutCompletedUnknownBooking(t *testing.T) {
	e := newEnv()

	result := reconcile(t, e, completedEvent())
	assert.False(t, result.Applied)
	assert.Equal(t, "booking_missing", result.Outcome)
}

func TestReconcile_CheckoutExpiredLeavesBookingPending(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)

	result := reconcile(t, e, domainpayments.CheckoutExpired{ID: "evt-2", SessionID: "cs_1"})
	assert.True(t, result.Applied)
	assert.Equal(t, "payment_failed", result.Outcome)

	ctx := context.Background()
	payment, err := e.factory.PaymentsRepo.ByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayments.StatusFailed, payment.Status)

	// The guest may still pay for the booking through a fresh session.
	bk, err := e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatePending, bk.State)
}

func TestReconcile_ChargeFailed(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)
	reconcile(t, e, completedEvent())

	result := reconcile(t, e, domainpayments.ChargeFailed{ID: "evt-3", IntentID: "pi_1", Reason: "card_declined"})
	assert.True(t, result.Applied)
	assert.Equal(t, "payment_failed", result.Outcome)

	payment, err := e.factory.PaymentsRepo.ByBookingID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayments.StatusFailed, payment.Status)
}

func TestReconcile_ChargeRefundedCancelsBooking(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)
	reconcile(t, e, completedEvent())

	result := reconcile(t, e, domainpayments.ChargeRefunded{ID: "evt-4", IntentID: "pi_1"})
	assert.True(t, result.Applied)
	assert.Equal(t, "refunded_cancelled", result.Outcome)

	ctx := context.Background()
	payment, err := e.factory.PaymentsRepo.ByBookingID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainpayments.StatusRefunded, payment.Status)

	bk, err := e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, bk.State)

	// The refund released the ledger; the dates can be reserved again.
	dr, err := daterange.New(stayDay(10), stayDay(13))
	require.NoError(t, err)
	assert.NoError(t, e.factory.Calendar.ReserveDays(ctx, "lst-1", "bk-2", dr.Days()))
}

func TestReconcile_ChargeRefundedTerminalBookingUntouched(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)
	reconcile(t, e, completedEvent())

	ctx := context.Background()
	bk, err := e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	require.NoError(t, bk.Complete(fixedNow()))
	bk.ClearEvents()
	require.NoError(t, e.factory.BookingRepo.Save(ctx, bk))

	result := reconcile(t, e, domainpayments.ChargeRefunded{ID: "evt-5", IntentID: "pi_1"})
	assert.Equal(t, "refunded_terminal_booking", result.Outcome)

	bk, err = e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCompleted, bk.State)
}

// flakyFactory fails the first Begin calls, simulating a store outage
// during a delivery; later calls pass through to the real factory.
type flakyFactory struct {
	inner memory.Factory
	fails int
}

func (f *flakyFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.fails > 0 {
		f.fails--
		return nil, errors.New("store unavailable")
	}
	return f.inner.Begin(ctx, opts)
}

// A delivery that fails on a store outage must not poison its event id:
// the provider redelivers, the command re-executes, and the paid booking
// still ends up confirmed.
func TestReconcile_RedeliveryAfterOutageConfirmsBooking(t *testing.T) {
	e := newEnv()
	seedPendingBooking(t, e)
	ctx := context.Background()

	factory := &flakyFactory{inner: e.factory, fails: 1}
	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, paymentsapp.ReconcileEventCommand{}.Key(), &paymentsapp.ReconcileHandler{
		Outbox: e.outbox,
		Now:    fixedNow,
	})
	bus := middleware.ChainCommands(base,
		middleware.Idempotency(memory.NewIdempotencyStore(), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(e.outbox),
	)

	cmd := paymentsapp.ReconcileEventCommand{Event: completedEvent()}
	_, err := commands.Dispatch[paymentsapp.ReconcileEventCommand, *paymentsapp.ReconcileResult](ctx, bus, cmd)
	require.Error(t, err)

	bk, err := e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatePending, bk.State)

	result, err := commands.Dispatch[paymentsapp.ReconcileEventCommand, *paymentsapp.ReconcileResult](ctx, bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", result.Outcome)

	bk, err = e.factory.BookingRepo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, bk.State)
}

func TestReconcile_UnknownEventIgnored(t *testing.T) {
	e := newEnv()

	result := reconcile(t, e, domainpayments.UnknownEvent{ID: "evt-6", Kind: "customer.created"})
	assert.False(t, result.Applied)
	assert.Equal(t, "ignored", result.Outcome)
}

func TestReconcile_EmptyEvent(t *testing.T) {
	e := newEnv()

	result, err := newHandler(e).Handle(context.Background(), paymentsapp.ReconcileEventCommand{})
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, "empty", result.Outcome)
}
