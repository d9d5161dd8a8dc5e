package booking

import (
	"context"
	"errors"
	"time"

	"homestay/internal/domain/listings"
	"homestay/internal/domain/pricing"
	"homestay/internal/domain/shared/daterange"
	"homestay/internal/domain/shared/events"
)

var (
	ErrBookingNotFound    = errors.New("booking: not found")
	ErrInvalidGuests      = errors.New("booking: guests count must be positive")
	ErrInvalidTransition  = errors.New("booking: invalid state transition")
	ErrDeleteRequiresCancel = errors.New("booking: only a pending booking without a succeeded payment may be deleted; cancel it instead")
	ErrReviewNotAllowed     = errors.New("booking: review allowed once, after checkout has passed")
)

type BookingID string

type State string

const (
	StatePending   State = "PENDING"
	StateConfirmed State = "CONFIRMED"
	StateCancelled State = "CANCELLED"
	StateCompleted State = "COMPLETED"
)

// Terminal reports whether no transition leaves the state.
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateCompleted
}

type Booking struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Price     pricing.Breakdown
	State     State
	Reviewed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	Delete(ctx context.Context, id BookingID) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	// ListByListing returns bookings in the given states overlapping
	// [from, to), ordered by check-in ascending. Zero bounds are unbounded.
	ListByListing(ctx context.Context, listingID listings.ListingID, from, to time.Time, states []State) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Guests    int
	Price     pricing.Breakdown
	CreatedAt time.Time
}

// NewBooking creates a pending booking. Availability must already have
// been checked; the reservation-day ledger re-validates it at commit.
func NewBooking(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestID == "" {
		return nil, errors.New("booking: guest id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:        params.ID,
		ListingID: params.ListingID,
		GuestID:   params.GuestID,
		Range:     params.Range,
		Guests:    params.Guests,
		Price:     params.Price,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, GuestsCount: b.Guests, TotalCents: b.Price.TotalCents(), At: now})
	return b, nil
}

// Confirm moves a pending booking to confirmed. Re-confirming an already
// confirmed booking returns ErrInvalidTransition; callers that need
// redelivery tolerance check the state first.
func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidTransition
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, At: b.UpdatedAt})
	return nil
}

// Cancel moves a pending or confirmed booking to cancelled, releasing its
// claim on the date range.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return ErrInvalidTransition
	}
	b.State = StateCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, Range: b.Range, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Complete marks a confirmed stay as finished, making it review-eligible.
func (b *Booking) Complete(now time.Time) error {
	if b.State != StateConfirmed {
		return ErrInvalidTransition
	}
	b.State = StateCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, ListingID: b.ListingID, At: b.UpdatedAt})
	return nil
}

// HoldsDates reports whether the booking currently reserves its range
// against new overlapping bookings.
func (b *Booking) HoldsDates() bool {
	return b.State == StatePending || b.State == StateConfirmed
}

// Deletable checks the hard-delete precondition: pending, and no payment
// has succeeded. paymentSucceeded is false when no payment exists.
func (b *Booking) Deletable(paymentSucceeded bool) error {
	if b.State != StatePending || paymentSucceeded {
		return ErrDeleteRequiresCancel
	}
	return nil
}

// CanReview reports review eligibility: the stay's checkout has passed and
// no review was submitted yet. The review component itself is external.
func (b *Booking) CanReview(now time.Time) bool {
	if b.Reviewed || b.State == StateCancelled {
		return false
	}
	today := daterange.Day(now)
	return today.After(b.Range.CheckOut) || today.Equal(b.Range.CheckOut)
}

// AttachReview marks the single review slot as used. It is the precondition
// gate the external review component calls through.
func (b *Booking) AttachReview(now time.Time) error {
	if !b.CanReview(now) {
		return ErrReviewNotAllowed
	}
	b.Reviewed = true
	b.UpdatedAt = now.UTC()
	return nil
}
