package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Verify reports whether header is a valid signature of payload under secret.
func Verify(secret string, payload []byte, header string, scheme Scheme) bool {
	return Check(secret, payload, header, scheme).Valid
}

// Check verifies header and reports why it failed. It is pure and never
// looks at the clock; see Verifier for timestamp tolerance.
func Check(secret string, payload []byte, header string, scheme Scheme) Result {
	if secret == "" {
		return fail(ReasonConfigurationMissing)
	}

	switch scheme {
	case SchemeSimple:
		return checkSimple(secret, payload, header)
	case SchemeTimestamped:
		result, _ := checkTimestamped(secret, payload, header)
		return result
	default:
		return fail(ReasonMalformedHeader)
	}
}

func checkSimple(secret string, payload []byte, header string) Result {
	if !strings.HasPrefix(header, simplePrefix) {
		return fail(ReasonMalformedHeader)
	}
	if !digestEqual(computeHex(secret, payload), header[len(simplePrefix):]) {
		return fail(ReasonSignatureMismatch)
	}
	return valid
}

// checkTimestamped also returns the parsed timestamp so Verifier can apply
// its tolerance without parsing twice.
func checkTimestamped(secret string, payload []byte, header string) (Result, string) {
	parsed, err := ParseTimestampedHeader(header)
	if err != nil {
		return fail(ReasonMalformedHeader), ""
	}

	expected := computeHex(secret, signedString(parsed.Timestamp, payload))
	matched := false
	for _, candidate := range parsed.Signatures {
		// every candidate is compared so the work done does not reveal which one matched
		if digestEqual(expected, candidate) {
			matched = true
		}
	}
	if !matched {
		return fail(ReasonSignatureMismatch), parsed.Timestamp
	}
	return valid, parsed.Timestamp
}

func signedString(timestamp string, payload []byte) []byte {
	signed := make([]byte, 0, len(timestamp)+1+len(payload))
	signed = append(signed, timestamp...)
	signed = append(signed, '.')
	return append(signed, payload...)
}

func computeHex(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// digestEqual compares hex strings in constant time. Uppercase or non-hex
// input simply does not match.
func digestEqual(expected, presented string) bool {
	return hmac.Equal([]byte(expected), []byte(presented))
}

// Verifier is the configured form used at the HTTP boundary.
type Verifier struct {
	Scheme Scheme
	// Tolerance bounds how far t may be from Now for SchemeTimestamped.
	// Zero disables the check.
	Tolerance time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Check runs the pure check and, when Tolerance is set, the timestamp window.
// The window is only applied to headers whose signature already verified.
func (v Verifier) Check(secret string, payload []byte, header string) Result {
	if v.Scheme != SchemeTimestamped || v.Tolerance <= 0 || secret == "" {
		return Check(secret, payload, header, v.Scheme)
	}

	result, timestamp := checkTimestamped(secret, payload, header)
	if !result.Valid {
		return result
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fail(ReasonTimestampOutOfTolerance)
	}
	age := v.now().Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > v.Tolerance {
		return fail(ReasonTimestampOutOfTolerance)
	}
	return valid
}

// Verify is Check reduced to a boolean.
func (v Verifier) Verify(secret string, payload []byte, header string) bool {
	return v.Check(secret, payload, header).Valid
}

func (v Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}
