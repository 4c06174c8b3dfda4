// Package signature verifies HMAC-SHA256 webhook signatures.
//
// Two header formats are supported:
//
//	X-Hub-Signature-256: sha256=<hex>          (SchemeSimple, GitHub style)
//	Stripe-Signature:    t=<ts>,v1=<hex>[,...] (SchemeTimestamped, Stripe style)
//
// For the timestamped scheme the signed string is "<ts>.<payload>". Other keys
// in the header (v0 and so on) are ignored and every v1 entry is a candidate,
// which lets senders rotate secrets.
//
// # Usage
//
// As a pure check:
//
//	if !signature.Verify(secret, body, r.Header.Get("X-Hub-Signature-256"), signature.SchemeSimple) {
//	    // reject
//	}
//
// As route middleware:
//
//	mw := signature.NewMiddleware(signature.MiddlewareConfig{
//	    Provider:      "stripe",
//	    Header:        signature.HeaderStripe,
//	    Secret:        cfg.StripeWebhookSecret,
//	    Verifier:      signature.Verifier{Scheme: signature.SchemeTimestamped, Tolerance: 5 * time.Minute},
//	    FailureStatus: http.StatusBadRequest,
//	}, logger)
//	router.Handle("/webhooks/stripe", mw.Wrap(handler))
//
// # Security Considerations
//
// An empty secret never verifies. Digests are compared with hmac.Equal. The
// reason a check failed is only logged; callers always see the same response.
// Verification never panics on malformed input.
package signature
