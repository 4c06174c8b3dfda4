package signature

import "fmt"

// Reason explains why a verification failed. It is for logs only.
type Reason string

const (
	ReasonNone                    Reason = ""
	ReasonConfigurationMissing    Reason = "configuration_missing"
	ReasonMalformedHeader         Reason = "malformed_header"
	ReasonSignatureMismatch       Reason = "signature_mismatch"
	ReasonTimestampOutOfTolerance Reason = "timestamp_out_of_tolerance"
)

// VerificationError represents a signature verification failure
type VerificationError struct {
	Reason Reason
	Header string
}

func (e *VerificationError) Error() string {
	if e.Header != "" {
		return fmt.Sprintf("signature verification failed for header %s: %s", e.Header, e.Reason)
	}
	return fmt.Sprintf("signature verification failed: %s", e.Reason)
}

// Result is the outcome of a check. It never carries digests or secrets.
type Result struct {
	Valid  bool
	Reason Reason
}

// Err returns nil for a valid result and a *VerificationError otherwise.
func (r Result) Err(header string) error {
	if r.Valid {
		return nil
	}
	return &VerificationError{Reason: r.Reason, Header: header}
}

func fail(reason Reason) Result {
	return Result{Reason: reason}
}

var valid = Result{Valid: true}
