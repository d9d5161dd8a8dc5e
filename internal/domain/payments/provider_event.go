package payments

import "homestay/internal/domain/booking"

// ProviderEvent is the closed set of payment-provider notifications the
// reconciliation flow understands. Modelling them as a sealed interface
// keeps dispatch exhaustive: a new variant is a compile-time-visible gap
// in every switch, not a silent no-op.
type ProviderEvent interface {
	providerEvent()
	EventID() string
}

// CheckoutCompleted reports a checkout session that finished and was paid.
// The booking reference comes from caller-supplied session metadata, not
// from a natural key of the session.
type CheckoutCompleted struct {
	ID        string
	SessionID string
	IntentID  string
	BookingID booking.BookingID
}

// CheckoutExpired reports a checkout session the guest abandoned. Only the
// payment fails; the booking stays pending and may be retried.
type CheckoutExpired struct {
	ID        string
	SessionID string
}

// ChargeFailed reports a failed charge, matched by payment-intent id since
// the event may not carry booking metadata.
type ChargeFailed struct {
	ID       string
	IntentID string
	Reason   string
}

// ChargeRefunded reports a refunded charge, matched by payment-intent id.
type ChargeRefunded struct {
	ID       string
	IntentID string
}

// UnknownEvent is any kind outside the enumerated set. It is acknowledged
// without state changes.
type UnknownEvent struct {
	ID   string
	Kind string
}

func (CheckoutCompleted) providerEvent() {}
func (CheckoutExpired) providerEvent()   {}
func (ChargeFailed) providerEvent()      {}
func (ChargeRefunded) providerEvent()    {}
func (UnknownEvent) providerEvent()      {}

func (e CheckoutCompleted) EventID() string { return e.ID }
func (e CheckoutExpired) EventID() string   { return e.ID }
func (e ChargeFailed) EventID() string      { return e.ID }
func (e ChargeRefunded) EventID() string    { return e.ID }
func (e UnknownEvent) EventID() string      { return e.ID }
