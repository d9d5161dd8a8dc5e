package booking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingapp "homestay/internal/app/handlers/booking"
	domainbooking "homestay/internal/domain/booking"
)

func seedBooking(t *testing.T, e *env, id string, in, out int) {
	t.Helper()
	h := newCreateHandler(e, nil)
	cmd := createCmd(id, in, out)
	cmd.CommandID = id
	_, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
}

func newTransitionHandler(e *env) *bookingapp.TransitionBookingHandler {
	return &bookingapp.TransitionBookingHandler{
		UoWFactory: e.factory,
		Cache:      e.cache,
		Outbox:     e.outbox,
		Now:        fixedNow,
	}
}

func transition(e *env, bookingID, actorID string, target domainbooking.State) (*bookingapp.TransitionBookingResult, error) {
	return newTransitionHandler(e).Handle(context.Background(), bookingapp.TransitionBookingCommand{
		BookingID: bookingID,
		ActorID:   actorID,
		Target:    target,
		Reason:    "test",
	})
}

func TestTransition_HostConfirms(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	result, err := transition(e, "bk-1", "host-1", domainbooking.StateConfirmed)
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), result.Status)

	stored, err := e.factory.BookingRepo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, stored.State)
}

// Confirming is outside the guest's transition table, so the guest on the
// booking gets an invalid-transition conflict rather than Forbidden.
func TestTransition_GuestConfirmIsInvalidTransition(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	_, err := transition(e, "bk-1", "guest-1", domainbooking.StateConfirmed)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestTransition_StrangerForbidden(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	_, err := transition(e, "bk-1", "someone-else", domainbooking.StateCancelled)
	assert.ErrorIs(t, err, bookingapp.ErrActorForbidden)
}

func TestTransition_GuestCancelReleasesDates(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	result, err := transition(e, "bk-1", "guest-1", domainbooking.StateCancelled)
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCancelled), result.Status)

	// The freed dates can be booked again.
	seedBooking(t, e, "bk-2", 10, 13)
}

func TestTransition_HostCancelsConfirmed(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	_, err := transition(e, "bk-1", "host-1", domainbooking.StateConfirmed)
	require.NoError(t, err)
	_, err = transition(e, "bk-1", "host-1", domainbooking.StateCancelled)
	require.NoError(t, err)

	stored, err := e.factory.BookingRepo.ByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateCancelled, stored.State)
}

func TestTransition_CompleteRequiresConfirmed(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	_, err := transition(e, "bk-1", "host-1", domainbooking.StateCompleted)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)

	_, err = transition(e, "bk-1", "host-1", domainbooking.StateConfirmed)
	require.NoError(t, err)
	_, err = transition(e, "bk-1", "host-1", domainbooking.StateCompleted)
	assert.NoError(t, err)
}

func TestTransition_GuestCompleteIsInvalidTransition(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)
	_, err := transition(e, "bk-1", "host-1", domainbooking.StateConfirmed)
	require.NoError(t, err)

	_, err = transition(e, "bk-1", "guest-1", domainbooking.StateCompleted)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestTransition_CancelTerminalFails(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)
	_, err := transition(e, "bk-1", "guest-1", domainbooking.StateCancelled)
	require.NoError(t, err)

	_, err = transition(e, "bk-1", "guest-1", domainbooking.StateCancelled)
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestTransition_UnknownTarget(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")
	seedBooking(t, e, "bk-1", 10, 13)

	_, err := transition(e, "bk-1", "host-1", domainbooking.State("PAUSED"))
	assert.ErrorIs(t, err, bookingapp.ErrUnknownTarget)
}

func TestTransition_UnknownBooking(t *testing.T) {
	e := newEnv()
	e.seedListing(t, "lst-1")

	_, err := transition(e, "missing", "host-1", domainbooking.StateConfirmed)
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}
