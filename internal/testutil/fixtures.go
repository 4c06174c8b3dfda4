package testutil

// Shared secrets and payloads for webhook tests.
const (
	AdminToken   = "abc123"
	GitHubSecret = "wh_secret"
	StripeSecret = "whsec_test_secret"

	GitHubPingPayload = `{"zen":"Keep it logically awesome.","hook_id":1}`
	GitHubPushPayload = `{"ref":"refs/heads/main","repository":{"full_name":"octo/hello"}}`
)

// StripeEventPayload returns a minimal Stripe event body of the given type.
func StripeEventPayload(id, eventType string) []byte {
	return []byte(`{"id":"` + id + `","object":"event","type":"` + eventType + `","api_version":"2024-04-10",` +
		`"created":1700000000,"livemode":false,"data":{"object":{"id":"cs_test_1","object":"checkout.session",` +
		`"customer_email":"buyer@example.com","subscription":"sub_1"}}}`)
}

// StripeSubscriptionPayload returns a Stripe customer.subscription.* event for
// subscription subID in status.
func StripeSubscriptionPayload(id, eventType, subID, status string) []byte {
	return []byte(`{"id":"` + id + `","object":"event","type":"` + eventType + `","api_version":"2024-04-10",` +
		`"created":1700000000,"livemode":false,"data":{"object":{"id":"` + subID + `","object":"subscription",` +
		`"status":"` + status + `","cancel_at_period_end":false,"customer":"cus_1"}}}`)
}
