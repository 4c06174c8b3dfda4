// Package secret holds process-wide shared secrets in a type that refuses to
// print its value. Every fmt verb, JSON encoding and zap field renders a
// placeholder; only Reveal returns the raw value.
package secret

import (
	"encoding/json"
	"fmt"
)

const (
	redacted = "[REDACTED]"
	unset    = "[UNSET]"
)

// Secret is an opaque shared secret loaded once at startup.
type Secret struct {
	value string
}

// New wraps a raw value. An empty value yields an unset Secret.
func New(value string) Secret {
	return Secret{value: value}
}

// IsSet reports whether a non-empty value is configured.
func (s Secret) IsSet() bool {
	return s.value != ""
}

// Reveal returns the raw value. Callers must not log or echo it.
func (s Secret) Reveal() string {
	return s.value
}

// Len is the length of the raw value.
func (s Secret) Len() int {
	return len(s.value)
}

func (s Secret) placeholder() string {
	if s.IsSet() {
		return redacted
	}
	return unset
}

// String implements fmt.Stringer.
func (s Secret) String() string {
	return s.placeholder()
}

// GoString implements fmt.GoStringer so %#v of enclosing structs stays redacted.
func (s Secret) GoString() string {
	return s.placeholder()
}

// Format implements fmt.Formatter; every verb prints the placeholder.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(s.placeholder()))
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.placeholder())
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.placeholder()), nil
}
