// Package auth guards admin endpoints with a single shared admin token.
//
// The token is read once at startup into a secret.Secret and handed to an
// AdminValidator. Requests present it either as "Authorization: Bearer <token>"
// or in the X-Admin-Token header. An unset token rejects every request.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"webhook-guard/internal/common/secret"
)

const (
	// HeaderAuthorization carries "Bearer <token>"
	HeaderAuthorization = "Authorization"
	// HeaderAdminToken is the fallback header carrying the raw token
	HeaderAdminToken = "X-Admin-Token"

	bearerPrefix = "Bearer "
)

// ValidateToken reports whether presented equals configured. An empty
// configured token never validates.
//
// Both values are reduced to SHA-256 digests before a constant-time compare,
// so the work done is the same wherever the first differing byte sits and the
// configured length is not revealed by an early length check.
func ValidateToken(configured, presented string) bool {
	if configured == "" {
		return false
	}
	want := sha256.Sum256([]byte(configured))
	got := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// ExtractToken returns the bearer token, falling back to X-Admin-Token, or "".
func ExtractToken(r *http.Request) string {
	if header := r.Header.Get(HeaderAuthorization); strings.HasPrefix(header, bearerPrefix) {
		if token := header[len(bearerPrefix):]; token != "" {
			return token
		}
	}
	return r.Header.Get(HeaderAdminToken)
}

// Status describes the admin token configuration without exposing it.
type Status struct {
	Configured bool `json:"configured"`
}

// AdminValidator checks presented tokens against the configured admin secret.
// It is safe for concurrent use.
type AdminValidator struct {
	token secret.Secret
}

// NewAdminValidator creates a validator for token.
func NewAdminValidator(token secret.Secret) *AdminValidator {
	return &AdminValidator{token: token}
}

// Validate reports whether presented is the admin token.
func (v *AdminValidator) Validate(presented string) bool {
	return ValidateToken(v.token.Reveal(), presented)
}

// Configured reports whether an admin token is set.
func (v *AdminValidator) Configured() bool {
	return v.token.IsSet()
}

// Status returns the configuration status for the admin status endpoint.
func (v *AdminValidator) Status() Status {
	return Status{Configured: v.Configured()}
}
