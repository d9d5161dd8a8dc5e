package stripeprovider

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"

	"homestay/internal/app/policies"
	domainbooking "homestay/internal/domain/booking"
)

// metadataBookingKey carries the booking reference through the checkout
// session; completed-session events resolve the booking from it.
const metadataBookingKey = "booking_id"

type Provider struct {
	client     *stripe.Client
	successURL string
	cancelURL  string
}

func New(secretKey, successURL, cancelURL string) *Provider {
	return &Provider{
		client:     stripe.NewClient(secretKey),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateCheckoutSession opens a hosted checkout for the full stay amount.
// The amount is the quoted total in minor units; no decimal conversion
// happens here.
func (p *Provider) CreateCheckoutSession(ctx context.Context, bookingID domainbooking.BookingID, amountCents int64, currency, description string) (policies.CheckoutSession, error) {
	metadata := map[string]string{metadataBookingKey: string(bookingID)}
	piParams := &stripe.CheckoutSessionCreatePaymentIntentDataParams{}
	for k, v := range metadata {
		piParams.AddMetadata(k, v)
	}
	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String("payment"),
		UIMode:            stripe.String("hosted"),
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		PaymentIntentData: piParams,
		Metadata:          metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}

	session, err := p.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return policies.CheckoutSession{}, fmt.Errorf("%w: %v", policies.ErrProviderUnavailable, err)
	}
	return policies.CheckoutSession{SessionID: session.ID, URL: session.URL}, nil
}

var _ policies.PaymentProvider = (*Provider)(nil)
