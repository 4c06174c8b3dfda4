package signature

import (
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78/webhook"
	"webhook-guard/internal/testutil"
)

func TestStripeInterop_StripeSignedVerifies(t *testing.T) {
	payload := testutil.StripeEventPayload("evt_interop", "checkout.session.completed")
	now := time.Now()

	header := "t=" + strconv.FormatInt(now.Unix(), 10) +
		",v1=" + hex.EncodeToString(webhook.ComputeSignature(now, payload, testutil.StripeSecret))

	v := Verifier{Scheme: SchemeTimestamped, Tolerance: 5 * time.Minute}
	assert.True(t, v.Verify(testutil.StripeSecret, payload, header))
	assert.True(t, Verify(testutil.StripeSecret, payload, header, SchemeTimestamped))
	assert.False(t, Verify("whsec_other", payload, header, SchemeTimestamped))
}

func TestStripeInterop_OurSignaturePassesStripe(t *testing.T) {
	payload := testutil.StripeEventPayload("evt_interop", "invoice.paid")
	header := SignTimestamped(testutil.StripeSecret, payload, time.Now().Unix())

	require.NoError(t, webhook.ValidatePayload(payload, header, testutil.StripeSecret))
	assert.Error(t, webhook.ValidatePayload(payload, header, "whsec_other"))

	old := SignTimestamped(testutil.StripeSecret, payload, time.Now().Add(-time.Hour).Unix())
	assert.Error(t, webhook.ValidatePayload(payload, old, testutil.StripeSecret))
	assert.NoError(t, webhook.ValidatePayloadIgnoringTolerance(payload, old, testutil.StripeSecret))
	assert.True(t, Verify(testutil.StripeSecret, payload, old, SchemeTimestamped))
}
