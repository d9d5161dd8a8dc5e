package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homestay/internal/app/commands"
	"homestay/internal/app/middleware"
	"homestay/internal/app/outbox"
	"homestay/internal/app/policies"
	"homestay/internal/app/uow"
	domainavailability "homestay/internal/domain/availability"
	domainbooking "homestay/internal/domain/booking"
	domainlistings "homestay/internal/domain/listings"
	domainpayments "homestay/internal/domain/payments"
	domainpricing "homestay/internal/domain/pricing"
	domainrange "homestay/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

var (
	ErrUnitOfWorkRequired = errors.New("booking: unit of work required")
	ErrCheckInInPast      = errors.New("booking: check-in date is in the past")
	ErrListingNotBookable = errors.New("booking: listing is not bookable")
)

type CreateBookingCommand struct {
	CommandID       string
	ListingID       string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &CreateBookingResult{} }

type CreateBookingResult struct {
	BookingID   string `json:"booking_id"`
	SessionID   string `json:"checkout_session_id,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	TotalCents  int64  `json:"total_cents"`
}

type CreateBookingHandler struct {
	UoWFactory   uow.UoWFactory
	Provider     policies.PaymentProvider
	Cache        policies.AvailabilityCache
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	CommissionBP int64
	Now          func() time.Time
}

// Handle validates availability, quotes the stay, and commits the pending
// booking together with its reservation-day ledger rows and payment
// record. The ledger's uniqueness guard turns a lost availability race
// into ErrDateConflict for the later writer.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	unit, managed, err := beginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	if managed {
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	now := h.now()
	if dr.CheckIn.Before(domainrange.Day(now)) {
		return nil, ErrCheckInInPast
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if !listing.Bookable() {
		return nil, ErrListingNotBookable
	}

	// Best-effort pre-check; the ledger write below re-validates at commit.
	available, _, err := checkCalendar(ctx, unit, listing.ID, dr)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, domainavailability.ErrDateConflict
	}

	price, err := domainpricing.Quote(listing.NightlyRateCents, listing.Currency, dr.Nights(), h.commissionBP())
	if err != nil {
		return nil, err
	}

	bk, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(cmd.CommandID),
		ListingID: listing.ID,
		GuestID:   cmd.GuestID,
		Range:     dr,
		Guests:    cmd.Guests,
		Price:     price,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Booking().Save(ctx, bk); err != nil {
		return nil, err
	}
	if err := unit.Calendar().ReserveDays(ctx, listing.ID, bk.ID, dr.Days()); err != nil {
		return nil, err
	}

	result := &CreateBookingResult{BookingID: string(bk.ID), TotalCents: price.TotalCents()}
	if h.Provider != nil {
		session, err := h.Provider.CreateCheckoutSession(ctx, bk.ID, price.TotalCents(), price.Total.Currency,
			fmt.Sprintf("%d night(s) at %s", price.Nights, listing.Title))
		if err != nil {
			return nil, err
		}
		payment := domainpayments.NewPayment(domainpayments.CreateParams{
			ID:          domainpayments.PaymentID("pay-" + string(bk.ID)),
			BookingID:   bk.ID,
			SessionID:   session.SessionID,
			AmountCents: price.TotalCents(),
			Currency:    price.Total.Currency,
			CreatedAt:   now,
		})
		if err := unit.Payments().Save(ctx, payment); err != nil {
			return nil, err
		}
		result.SessionID = session.SessionID
		result.CheckoutURL = session.URL
	}

	pending := bk.PendingEvents()
	bk.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	invalidateCache(ctx, h.Cache, listing.ID)
	return result, nil
}

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateBookingHandler) commissionBP() int64 {
	if h.CommissionBP > 0 {
		return h.CommissionBP
	}
	return domainpricing.DefaultCommissionBP
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
