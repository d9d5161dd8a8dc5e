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
)

const transitionBookingKey = "booking.transition"

// ErrUnknownTarget rejects transition requests naming a status outside the
// state machine.
var ErrUnknownTarget = errors.New("booking: unknown target status")

type TransitionBookingCommand struct {
	BookingID string
	ActorID   string
	Target    domainbooking.State
	Reason    string
}

func (c TransitionBookingCommand) Key() string { return transitionBookingKey }

type TransitionBookingResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type TransitionBookingHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.AvailabilityCache
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle applies the role-based transition table. Guests may cancel their
// own booking; hosts may confirm, cancel, or complete bookings on their
// listing. Actors outside the booking get Forbidden; a party requesting a
// move outside their table gets ErrInvalidTransition.
func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*TransitionBookingResult, error) {
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
	role := resolveActor(cmd.ActorID, bk, listing)
	if role == roleNone {
		return nil, ErrActorForbidden
	}
	now := h.now()

	released := false
	switch cmd.Target {
	case domainbooking.StateConfirmed:
		if role != roleHost {
			return nil, domainbooking.ErrInvalidTransition
		}
		// Manual host confirmation; re-confirming is a harmless no-op.
		if bk.State != domainbooking.StateConfirmed {
			if err := bk.Confirm(now); err != nil {
				return nil, err
			}
		}
	case domainbooking.StateCancelled:
		if err := bk.Cancel(cmd.Reason, now); err != nil {
			return nil, err
		}
		released = true
	case domainbooking.StateCompleted:
		if role != roleHost {
			return nil, domainbooking.ErrInvalidTransition
		}
		if err := bk.Complete(now); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownTarget
	}

	if err := unit.Booking().Save(ctx, bk); err != nil {
		return nil, err
	}
	if released {
		if err := unit.Calendar().ReleaseDays(ctx, bk.ID); err != nil {
			return nil, err
		}
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

	if released {
		invalidateCache(ctx, h.Cache, bk.ListingID)
	}
	return &TransitionBookingResult{BookingID: string(bk.ID), Status: string(bk.State)}, nil
}

func (h *TransitionBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *TransitionBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[TransitionBookingCommand, *TransitionBookingResult] = (*TransitionBookingHandler)(nil)
