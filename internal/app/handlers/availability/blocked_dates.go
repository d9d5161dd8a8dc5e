package availability

import (
	"context"
	"time"

	"homestay/internal/app/commands"
	"homestay/internal/app/policies"
	"homestay/internal/app/uow"
	domainlistings "homestay/internal/domain/listings"
	domainrange "homestay/internal/domain/shared/daterange"
)

const (
	blockDatesKey   = "availability.block_dates"
	unblockDatesKey = "availability.unblock_dates"
)

type BlockDatesCommand struct {
	ListingID string
	ActorID   string
	Dates     []time.Time
}

func (c BlockDatesCommand) Key() string { return blockDatesKey }

type UnblockDatesCommand struct {
	ListingID string
	ActorID   string
	Dates     []time.Time
}

func (c UnblockDatesCommand) Key() string { return unblockDatesKey }

// BlockDatesHandler records host-entered unavailable days. Blocking a day
// that already carries a booking is allowed; the booking keeps its dates
// and the day simply stays unavailable for new requests.
type BlockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.AvailabilityCache
}

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (struct{}, error) {
	err := mutateBlockedDates(ctx, h.UoWFactory, h.Cache, cmd.ListingID, cmd.ActorID, cmd.Dates,
		func(ctx context.Context, unit uow.UnitOfWork, id domainlistings.ListingID, day time.Time) error {
			return unit.Calendar().BlockDate(ctx, id, day)
		})
	return struct{}{}, err
}

var _ commands.Handler[BlockDatesCommand, struct{}] = (*BlockDatesHandler)(nil)

type UnblockDatesHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.AvailabilityCache
}

// Unblocking a day that was never blocked is a no-op, not an error.
func (h *UnblockDatesHandler) Handle(ctx context.Context, cmd UnblockDatesCommand) (struct{}, error) {
	err := mutateBlockedDates(ctx, h.UoWFactory, h.Cache, cmd.ListingID, cmd.ActorID, cmd.Dates,
		func(ctx context.Context, unit uow.UnitOfWork, id domainlistings.ListingID, day time.Time) error {
			return unit.Calendar().UnblockDate(ctx, id, day)
		})
	return struct{}{}, err
}

var _ commands.Handler[UnblockDatesCommand, struct{}] = (*UnblockDatesHandler)(nil)

func mutateBlockedDates(ctx context.Context, factory uow.UoWFactory, cache policies.AvailabilityCache,
	listingID, actorID string, dates []time.Time,
	write func(context.Context, uow.UnitOfWork, domainlistings.ListingID, time.Time) error) error {
	unit, managed, err := beginWriteUnit(ctx, factory)
	if err != nil {
		return err
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

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID))
	if err != nil {
		return err
	}
	if actorID == "" || actorID != string(listing.Host) {
		return ErrNotListingHost
	}

	// Deduplicate after day truncation so repeated inputs stay one row.
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		day := domainrange.Day(d)
		if _, done := seen[day]; done {
			continue
		}
		seen[day] = struct{}{}
		if err := write(ctx, unit, listing.ID, day); err != nil {
			return err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return err
		}
		committed = true
	}
	if cache != nil {
		_ = cache.Invalidate(ctx, listing.ID)
	}
	return nil
}

func beginWriteUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if factory == nil {
		return nil, false, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	return unit, true, nil
}
