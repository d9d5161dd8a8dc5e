package stripeprovider_test

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	domainbooking "homestay/internal/domain/booking"
	domainpayments "homestay/internal/domain/payments"
	stripeprovider "homestay/internal/infra/payments/stripe"
)

const secret = "whsec_test_secret"

func signedHeader(payload []byte, signingSecret string) string {
	at := time.Now()
	sig := webhook.ComputeSignature(at, payload, signingSecret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func eventPayload(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, object))
}

func TestVerifyAndDecode_CheckoutCompleted(t *testing.T) {
	payload := eventPayload("checkout.session.completed",
		`{"id":"cs_1","payment_status":"paid","payment_intent":"pi_1","metadata":{"booking_id":"bk-1"}}`)

	ev, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, secret), secret)
	require.NoError(t, err)

	completed, ok := ev.(domainpayments.CheckoutCompleted)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "evt_1", completed.ID)
	assert.Equal(t, "cs_1", completed.SessionID)
	assert.Equal(t, "pi_1", completed.IntentID)
	assert.Equal(t, domainbooking.BookingID("bk-1"), completed.BookingID)
}

func TestVerifyAndDecode_UnpaidSessionIsIgnored(t *testing.T) {
	payload := eventPayload("checkout.session.completed",
		`{"id":"cs_1","payment_status":"unpaid","metadata":{"booking_id":"bk-1"}}`)

	ev, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, secret), secret)
	require.NoError(t, err)

	_, ok := ev.(domainpayments.UnknownEvent)
	assert.True(t, ok, "got %T", ev)
}

func TestVerifyAndDecode_CheckoutExpired(t *testing.T) {
	payload := eventPayload("checkout.session.expired", `{"id":"cs_1"}`)

	ev, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, secret), secret)
	require.NoError(t, err)

	expired, ok := ev.(domainpayments.CheckoutExpired)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "cs_1", expired.SessionID)
}

func TestVerifyAndDecode_PaymentFailed(t *testing.T) {
	payload := eventPayload("payment_intent.payment_failed",
		`{"id":"pi_1","last_payment_error":{"message":"card_declined"}}`)

	ev, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, secret), secret)
	require.NoError(t, err)

	failed, ok := ev.(domainpayments.ChargeFailed)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "pi_1", failed.IntentID)
	assert.Equal(t, "card_declined", failed.Reason)
}

func TestVerifyAndDecode_ChargeRefunded(t *testing.T) {
	payload := eventPayload("charge.refunded", `{"id":"ch_1","payment_intent":"pi_1"}`)

	ev, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, secret), secret)
	require.NoError(t, err)

	refunded, ok := ev.(domainpayments.ChargeRefunded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "pi_1", refunded.IntentID)
}

func TestVerifyAndDecode_UnhandledType(t *testing.T) {
	payload := eventPayload("customer.created", `{"id":"cus_1"}`)

	ev, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, secret), secret)
	require.NoError(t, err)

	unknown, ok := ev.(domainpayments.UnknownEvent)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, "customer.created", unknown.Kind)
}

func TestVerifyAndDecode_TamperedPayloadRejected(t *testing.T) {
	payload := eventPayload("checkout.session.completed", `{"id":"cs_1","payment_status":"paid"}`)
	header := signedHeader(payload, secret)

	tampered := eventPayload("checkout.session.completed", `{"id":"cs_2","payment_status":"paid"}`)
	_, err := stripeprovider.VerifyAndDecode(tampered, header, secret)
	assert.Error(t, err)
}

func TestVerifyAndDecode_WrongSecretRejected(t *testing.T) {
	payload := eventPayload("checkout.session.expired", `{"id":"cs_1"}`)

	_, err := stripeprovider.VerifyAndDecode(payload, signedHeader(payload, "whsec_other"), secret)
	assert.Error(t, err)
}

func TestVerifyAndDecode_MissingHeaderRejected(t *testing.T) {
	payload := eventPayload("checkout.session.expired", `{"id":"cs_1"}`)

	_, err := stripeprovider.VerifyAndDecode(payload, "", secret)
	assert.Error(t, err)
}
