package booking

import (
	"context"
	"errors"
	"time"

	"homestay/internal/app/commands"
	"homestay/internal/app/outbox"
	"homestay/internal/app/policies"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domainpayments "homestay/internal/domain/payments"
	"homestay/internal/domain/shared/events"
)

const deleteBookingKey = "booking.delete"

type DeleteBookingCommand struct {
	BookingID string
	ActorID   string
}

func (c DeleteBookingCommand) Key() string { return deleteBookingKey }

type DeleteBookingResult struct {
	BookingID string `json:"booking_id"`
	Deleted   bool   `json:"deleted"`
}

type DeleteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.AvailabilityCache
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle hard-deletes an abandoned draft booking. This is not a state
// transition: it is legal only while the booking is pending and no payment
// has succeeded, otherwise the caller is told to cancel instead.
func (h *DeleteBookingHandler) Handle(ctx context.Context, cmd DeleteBookingCommand) (*DeleteBookingResult, error) {
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

	bk, err := unit.Booking().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, bk.ListingID)
	if err != nil {
		return nil, err
	}
	if resolveActor(cmd.ActorID, bk, listing) == roleNone {
		return nil, ErrActorForbidden
	}

	payment, err := unit.Payments().ByBookingID(ctx, bk.ID)
	if err != nil && !errors.Is(err, domainpayments.ErrPaymentNotFound) {
		return nil, err
	}
	succeeded := payment != nil && payment.Status == domainpayments.StatusSucceeded
	if err := bk.Deletable(succeeded); err != nil {
		return nil, err
	}

	if payment != nil {
		if err := unit.Payments().DeleteByBookingID(ctx, bk.ID); err != nil {
			return nil, err
		}
	}
	if err := unit.Calendar().ReleaseDays(ctx, bk.ID); err != nil {
		return nil, err
	}
	if err := unit.Booking().Delete(ctx, bk.ID); err != nil {
		return nil, err
	}

	deleted := domainbooking.BookingDeleted{BookingID: bk.ID, ListingID: bk.ListingID, At: h.now()}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), []events.DomainEvent{deleted}); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	invalidateCache(ctx, h.Cache, bk.ListingID)
	return &DeleteBookingResult{BookingID: string(bk.ID), Deleted: true}, nil
}

func (h *DeleteBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *DeleteBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[DeleteBookingCommand, *DeleteBookingResult] = (*DeleteBookingHandler)(nil)
