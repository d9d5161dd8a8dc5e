package policies

import (
	"context"
	"errors"

	domainbooking "homestay/internal/domain/booking"
)

var (
	// ErrProviderUnavailable signals the payment provider is not configured
	// or not reachable; surfaced to callers as a retryable failure.
	ErrProviderUnavailable = errors.New("policies: payment provider unavailable")
)

// CheckoutSession is the provider-side reference created for a pending
// booking. The guest completes payment against it out-of-band.
type CheckoutSession struct {
	SessionID string
	URL       string
}

// PaymentProvider creates checkout sessions for pending bookings. Webhook
// events flow back through the reconciliation handler, never through this
// port.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, bookingID domainbooking.BookingID, amountCents int64, currency string, description string) (CheckoutSession, error)
}
