package signature

import "strconv"

// SignSimple returns the X-Hub-Signature-256 value for payload.
func SignSimple(secret string, payload []byte) string {
	return simplePrefix + computeHex(secret, payload)
}

// SignTimestamped returns the Stripe-Signature value for payload at unix time ts.
func SignTimestamped(secret string, payload []byte, ts int64) string {
	t := strconv.FormatInt(ts, 10)
	return "t=" + t + ",v1=" + computeHex(secret, signedString(t, payload))
}

// Sign dispatches on scheme. ts is ignored for SchemeSimple.
func Sign(scheme Scheme, secret string, payload []byte, ts int64) string {
	if scheme == SchemeTimestamped {
		return SignTimestamped(secret, payload, ts)
	}
	return SignSimple(secret, payload)
}
