package domain

import (
	"time"
	"unicode/utf8"
)

// PublicIDLength is the number of leading bytes of an OTP that identify
// the physical token.
const PublicIDLength = 12

// Binding ties a user to one hardware token and records whether the second
// factor is mandatory for them.
type Binding struct {
	UserID    string
	Required  bool
	PublicID  string // always at most PublicIDLength bytes
	UpdatedAt time.Time
}

// TruncatePublicID cuts s to PublicIDLength bytes, the same unit ParseToken
// uses. A multi-byte character straddling the cut is dropped whole so the
// stored value stays valid UTF-8. Shorter input is kept as is.
func TruncatePublicID(s string) string {
	if len(s) <= PublicIDLength {
		return s
	}
	n := PublicIDLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
