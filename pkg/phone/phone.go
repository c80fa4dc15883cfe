package phone

import "strings"

// DefaultCountryCode is prefixed to bare 10-digit numbers. Overridden from
// config at startup.
var DefaultCountryCode = "91"

// Normalize converts an arbitrary phone string into the canonical digit-only
// lookup key used across orders, checkouts and message logs. A bare 10-digit
// number gets the default country code prefixed; anything else is returned
// with non-digits stripped. Empty input normalizes to "".
//
// The function is deliberately naive: it guarantees internal consistency, not
// E.164 correctness. It is idempotent, so already-normalized values pass
// through unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 10 {
		return DefaultCountryCode + digits
	}

	return digits
}
