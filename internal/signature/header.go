package signature

import (
	"fmt"
	"strings"
)

// Scheme selects the header format and signed string.
type Scheme string

const (
	SchemeSimple      Scheme = "simple"
	SchemeTimestamped Scheme = "timestamped"
)

// Header names used by the providers.
const (
	HeaderGitHub = "X-Hub-Signature-256"
	HeaderStripe = "Stripe-Signature"
)

const simplePrefix = "sha256="

// ParseScheme converts a name to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(name))) {
	case SchemeSimple:
		return SchemeSimple, nil
	case SchemeTimestamped:
		return SchemeTimestamped, nil
	default:
		return "", fmt.Errorf("unknown signature scheme %q (want simple or timestamped)", name)
	}
}

// TimestampedHeader is a parsed "t=...,v1=..." header.
type TimestampedHeader struct {
	Timestamp  string
	Signatures []string
}

// ParseTimestampedHeader splits header into key=value pairs and collects t
// and every v1. A segment without exactly one '=' or a missing t or v1 is an
// error.
// Unknown keys are ignored; a repeated t keeps the last value.
func ParseTimestampedHeader(header string) (TimestampedHeader, error) {
	var parsed TimestampedHeader
	if header == "" {
		return parsed, fmt.Errorf("empty header")
	}

	for _, segment := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			return TimestampedHeader{}, fmt.Errorf("segment without '='")
		}
		if strings.Contains(value, "=") {
			return TimestampedHeader{}, fmt.Errorf("segment with more than one '='")
		}
		switch strings.TrimSpace(key) {
		case "t":
			parsed.Timestamp = strings.TrimSpace(value)
		case "v1":
			parsed.Signatures = append(parsed.Signatures, strings.TrimSpace(value))
		}
	}

	if parsed.Timestamp == "" {
		return TimestampedHeader{}, fmt.Errorf("missing t")
	}
	if len(parsed.Signatures) == 0 {
		return TimestampedHeader{}, fmt.Errorf("missing v1")
	}
	return parsed, nil
}
