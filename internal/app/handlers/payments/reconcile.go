package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"homestay/internal/app/commands"
	"homestay/internal/app/middleware"
	"homestay/internal/app/outbox"
	"homestay/internal/app/policies"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domainpayments "homestay/internal/domain/payments"
)

const reconcileEventKey = "payments.reconcile_event"

// ReconcileEventCommand applies one verified provider notification to the
// payment and booking records. The provider's event id doubles as the
// idempotency key, so a redelivered event replays its stored result
// instead of running twice.
type ReconcileEventCommand struct {
	Event domainpayments.ProviderEvent
}

func (c ReconcileEventCommand) Key() string { return reconcileEventKey }

func (c ReconcileEventCommand) IdempotencyKey() string {
	if c.Event == nil {
		return ""
	}
	return "provider-event:" + c.Event.EventID()
}

func (c ReconcileEventCommand) ResultPrototype() any { return &ReconcileResult{} }

type ReconcileResult struct {
	Applied bool   `json:"applied"`
	Outcome string `json:"outcome"`
}

type ReconcileHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.AvailabilityCache
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

// Handle dispatches on the closed event set. Events that reference records
// we do not hold are logged and acknowledged: failing them would make the
// provider redeliver a notification we can never apply. Store errors do
// propagate so the delivery is retried.
func (h *ReconcileHandler) Handle(ctx context.Context, cmd ReconcileEventCommand) (*ReconcileResult, error) {
	if cmd.Event == nil {
		return &ReconcileResult{Applied: false, Outcome: "empty"}, nil
	}

	unit, managed, err := h.beginUnit(ctx)
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

	var result *ReconcileResult
	switch ev := cmd.Event.(type) {
	case domainpayments.CheckoutCompleted:
		result, err = h.applyCheckoutCompleted(ctx, unit, ev)
	case domainpayments.CheckoutExpired:
		result, err = h.applyCheckoutExpired(ctx, unit, ev)
	case domainpayments.ChargeFailed:
		result, err = h.applyChargeFailed(ctx, unit, ev)
	case domainpayments.ChargeRefunded:
		result, err = h.applyChargeRefunded(ctx, unit, ev)
	case domainpayments.UnknownEvent:
		h.logger().InfoContext(ctx, "ignoring unhandled provider event", "event_id", ev.ID, "kind", ev.Kind)
		result = &ReconcileResult{Applied: false, Outcome: "ignored"}
	default:
		return nil, fmt.Errorf("payments: unexpected provider event %T", ev)
	}
	if err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return result, nil
}

// applyCheckoutCompleted confirms the booking named by the session's
// metadata and marks its payment succeeded. A booking already confirmed is
// a redelivery and applies cleanly as a no-op; a booking cancelled in the
// meantime keeps the payment succeeded and is flagged for manual refund.
func (h *ReconcileHandler) applyCheckoutCompleted(ctx context.Context, unit uow.UnitOfWork, ev domainpayments.CheckoutCompleted) (*ReconcileResult, error) {
	bk, err := unit.Booking().ByID(ctx, ev.BookingID)
	if errors.Is(err, domainbooking.ErrBookingNotFound) {
		h.logger().WarnContext(ctx, "checkout completed for unknown booking", "event_id", ev.ID, "booking_id", string(ev.BookingID))
		return &ReconcileResult{Applied: false, Outcome: "booking_missing"}, nil
	}
	if err != nil {
		return nil, err
	}

	payment, err := h.paymentForSession(ctx, unit, ev.BookingID, ev.SessionID)
	if errors.Is(err, domainpayments.ErrPaymentNotFound) {
		h.logger().WarnContext(ctx, "checkout completed without payment record", "event_id", ev.ID, "booking_id", string(ev.BookingID))
		return &ReconcileResult{Applied: false, Outcome: "payment_missing"}, nil
	}
	if err != nil {
		return nil, err
	}

	now := h.now()
	payment.MarkSucceeded(ev.IntentID, now)

	outcome := "confirmed"
	switch bk.State {
	case domainbooking.StatePending:
		if err := bk.Confirm(now); err != nil {
			return nil, err
		}
		if err := unit.Booking().Save(ctx, bk); err != nil {
			return nil, err
		}
	case domainbooking.StateConfirmed:
		outcome = "already_confirmed"
	default:
		h.logger().WarnContext(ctx, "payment succeeded for booking past its window", "event_id", ev.ID, "booking_id", string(bk.ID), "state", string(bk.State))
		outcome = "needs_refund"
	}

	if err := h.savePayment(ctx, unit, payment, bk); err != nil {
		return nil, err
	}
	return &ReconcileResult{Applied: true, Outcome: outcome}, nil
}

// applyCheckoutExpired fails the payment only. The booking stays pending
// so the guest can retry paying for it.
func (h *ReconcileHandler) applyCheckoutExpired(ctx context.Context, unit uow.UnitOfWork, ev domainpayments.CheckoutExpired) (*ReconcileResult, error) {
	payment, err := unit.Payments().BySessionID(ctx, ev.SessionID)
	if errors.Is(err, domainpayments.ErrPaymentNotFound) {
		h.logger().WarnContext(ctx, "checkout expired for unknown session", "event_id", ev.ID, "session_id", ev.SessionID)
		return &ReconcileResult{Applied: false, Outcome: "payment_missing"}, nil
	}
	if err != nil {
		return nil, err
	}
	payment.MarkFailed("checkout_expired", h.now())
	if err := h.savePayment(ctx, unit, payment, nil); err != nil {
		return nil, err
	}
	return &ReconcileResult{Applied: true, Outcome: "payment_failed"}, nil
}

func (h *ReconcileHandler) applyChargeFailed(ctx context.Context, unit uow.UnitOfWork, ev domainpayments.ChargeFailed) (*ReconcileResult, error) {
	payment, err := unit.Payments().ByPaymentIntentID(ctx, ev.IntentID)
	if errors.Is(err, domainpayments.ErrPaymentNotFound) {
		h.logger().WarnContext(ctx, "charge failed for unknown intent", "event_id", ev.ID, "intent_id", ev.IntentID)
		return &ReconcileResult{Applied: false, Outcome: "payment_missing"}, nil
	}
	if err != nil {
		return nil, err
	}
	payment.MarkFailed(ev.Reason, h.now())
	if err := h.savePayment(ctx, unit, payment, nil); err != nil {
		return nil, err
	}
	return &ReconcileResult{Applied: true, Outcome: "payment_failed"}, nil
}

// applyChargeRefunded marks the payment refunded and cancels the booking,
// releasing its dates. Bookings already terminal are left as they are.
func (h *ReconcileHandler) applyChargeRefunded(ctx context.Context, unit uow.UnitOfWork, ev domainpayments.ChargeRefunded) (*ReconcileResult, error) {
	payment, err := unit.Payments().ByPaymentIntentID(ctx, ev.IntentID)
	if errors.Is(err, domainpayments.ErrPaymentNotFound) {
		h.logger().WarnContext(ctx, "refund for unknown intent", "event_id", ev.ID, "intent_id", ev.IntentID)
		return &ReconcileResult{Applied: false, Outcome: "payment_missing"}, nil
	}
	if err != nil {
		return nil, err
	}

	now := h.now()
	payment.MarkRefunded(now)

	outcome := "refunded"
	var bk *domainbooking.Booking
	bk, err = unit.Booking().ByID(ctx, payment.BookingID)
	switch {
	case errors.Is(err, domainbooking.ErrBookingNotFound):
		bk = nil
	case err != nil:
		return nil, err
	case bk.State.Terminal():
		outcome = "refunded_terminal_booking"
	default:
		if err := bk.Cancel("payment_refunded", now); err != nil {
			return nil, err
		}
		if err := unit.Booking().Save(ctx, bk); err != nil {
			return nil, err
		}
		if err := unit.Calendar().ReleaseDays(ctx, bk.ID); err != nil {
			return nil, err
		}
		if h.Cache != nil {
			_ = h.Cache.Invalidate(ctx, bk.ListingID)
		}
		outcome = "refunded_cancelled"
	}

	if err := h.savePayment(ctx, unit, payment, bk); err != nil {
		return nil, err
	}
	return &ReconcileResult{Applied: true, Outcome: outcome}, nil
}

// paymentForSession prefers the booking-keyed lookup, falling back to the
// session id for payments created before metadata was attached.
func (h *ReconcileHandler) paymentForSession(ctx context.Context, unit uow.UnitOfWork, bookingID domainbooking.BookingID, sessionID string) (*domainpayments.Payment, error) {
	payment, err := unit.Payments().ByBookingID(ctx, bookingID)
	if err == nil || !errors.Is(err, domainpayments.ErrPaymentNotFound) {
		return payment, err
	}
	return unit.Payments().BySessionID(ctx, sessionID)
}

// savePayment persists the payment and drains the recorded domain events
// from both aggregates into the outbox inside the same unit of work.
func (h *ReconcileHandler) savePayment(ctx context.Context, unit uow.UnitOfWork, payment *domainpayments.Payment, bk *domainbooking.Booking) error {
	if err := unit.Payments().Save(ctx, payment); err != nil {
		return err
	}
	pending := payment.PendingEvents()
	payment.ClearEvents()
	if bk != nil {
		pending = append(pending, bk.PendingEvents()...)
		bk.ClearEvents()
	}
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending)
}

func (h *ReconcileHandler) beginUnit(ctx context.Context) (uow.UnitOfWork, bool, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, false, nil
	}
	if h.UoWFactory == nil {
		return nil, false, uow.ErrUnitOfWorkMissing
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	return unit, true, nil
}

func (h *ReconcileHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ReconcileHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *ReconcileHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ReconcileEventCommand, *ReconcileResult] = (*ReconcileHandler)(nil)
var _ middleware.IdempotentCommand = (*ReconcileEventCommand)(nil)
