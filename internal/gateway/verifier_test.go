package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftly/pkg/utils"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a valid signature header the way the gateway does:
// HMAC-SHA256 over "<timestamp>.<payload>" with the endpoint secret.
func signPayload(t *testing.T, payload []byte) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{}}}`)

	_, err := v.Verify(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, utils.ErrSignatureVerification)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":1000}}}`)
	header := signPayload(t, payload)

	tampered := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":999999}}}`)
	_, err := v.Verify(tampered, header)
	assert.ErrorIs(t, err, utils.ErrSignatureVerification)
}

func TestVerifyPaymentCaptured(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_cap","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","amount":10000}}}`)

	event, err := v.Verify(payload, signPayload(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_cap", event.ID)
	assert.Equal(t, EventPaymentCaptured, event.Kind)
	require.NotNil(t, event.Payment)
	assert.Equal(t, "pi_123", event.Payment.PaymentRef)
	assert.Equal(t, int64(10000), event.Payment.Amount)
}

func TestVerifyCheckoutCompleted(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{
		"id": "evt_sess",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_123",
			"amount_total": 10000,
			"currency": "eur",
			"payment_intent": "pi_123",
			"customer_details": {"email": "buyer@example.com"},
			"metadata": {"order_id": "o-1", "fee_percent": "15"}
		}}
	}`)

	event, err := v.Verify(payload, signPayload(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Kind)
	require.NotNil(t, event.Session)
	assert.Equal(t, "cs_123", event.Session.SessionID)
	assert.Equal(t, "pi_123", event.Session.PaymentRef)
	assert.Equal(t, int64(10000), event.Session.AmountTotal)
	assert.Equal(t, "eur", event.Session.Currency)
	assert.Equal(t, "buyer@example.com", event.Session.BuyerEmail)
	assert.Equal(t, "o-1", event.Session.Metadata["order_id"])
}

func TestVerifyChargeRefunded(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{
		"id": "evt_ref",
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_123", "payment_intent": "pi_123", "amount_refunded": 2500}}
	}`)

	event, err := v.Verify(payload, signPayload(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventChargeRefunded, event.Kind)
	require.NotNil(t, event.Refund)
	assert.Equal(t, "pi_123", event.Refund.PaymentRef)
	assert.Equal(t, int64(2500), event.Refund.AmountRefunded)
}

func TestVerifyAccountUpdated(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{
		"id": "evt_acct",
		"type": "account.updated",
		"data": {"object": {"id": "acct_123", "charges_enabled": true, "payouts_enabled": true, "details_submitted": true}}
	}`)

	event, err := v.Verify(payload, signPayload(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventAccountUpdated, event.Kind)
	require.NotNil(t, event.Account)
	assert.Equal(t, "acct_123", event.Account.AccountRef)
	assert.True(t, event.Account.PayoutsEnabled)
}

func TestVerifyUnknownTypePassesThrough(t *testing.T) {
	v := NewStripeVerifier(testWebhookSecret)
	payload := []byte(`{"id":"evt_misc","type":"invoice.finalized","data":{"object":{}}}`)

	event, err := v.Verify(payload, signPayload(t, payload))
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, event.Kind)
	assert.Equal(t, "invoice.finalized", event.RawType)
	assert.Nil(t, event.Session)
	assert.Nil(t, event.Payment)
}
