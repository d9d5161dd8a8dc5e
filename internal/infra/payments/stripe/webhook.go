package stripeprovider

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	domainbooking "homestay/internal/domain/booking"
	domainpayments "homestay/internal/domain/payments"
)

// VerifyAndDecode checks the payload signature and maps the provider's
// event onto the reconciliation sum type. Verification is fail-closed: a
// missing or bad signature is an error, never an UnknownEvent.
func VerifyAndDecode(payload []byte, signatureHeader, secret string) (domainpayments.ProviderEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, secret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification: %w", err)
	}
	return decode(event)
}

func decode(event stripe.Event) (domainpayments.ProviderEvent, error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		// Sessions completed but unpaid (async payment methods) settle via
		// later payment events.
		if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			return domainpayments.UnknownEvent{ID: event.ID, Kind: string(event.Type)}, nil
		}
		intentID := ""
		if session.PaymentIntent != nil {
			intentID = session.PaymentIntent.ID
		}
		return domainpayments.CheckoutCompleted{
			ID:        event.ID,
			SessionID: session.ID,
			IntentID:  intentID,
			BookingID: domainbooking.BookingID(session.Metadata[metadataBookingKey]),
		}, nil

	case stripe.EventTypeCheckoutSessionExpired:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		return domainpayments.CheckoutExpired{ID: event.ID, SessionID: session.ID}, nil

	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		reason := "payment_failed"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			reason = intent.LastPaymentError.Msg
		}
		return domainpayments.ChargeFailed{ID: event.ID, IntentID: intent.ID, Reason: reason}, nil

	case stripe.EventTypeChargeRefunded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		intentID := ""
		if charge.PaymentIntent != nil {
			intentID = charge.PaymentIntent.ID
		}
		return domainpayments.ChargeRefunded{ID: event.ID, IntentID: intentID}, nil

	default:
		return domainpayments.UnknownEvent{ID: event.ID, Kind: string(event.Type)}, nil
	}
}
