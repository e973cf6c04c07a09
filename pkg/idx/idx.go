// Package idx mints the identifiers keygate hands out: user ids, session
// ids, request ids and validation request nonces.
package idx

import (
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a ULID in its canonical 26 character Crockford base32 form, so it
// sorts by creation time.
type ID string

// Zero is the unset ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// New returns an ID for the current time. IDs minted within one millisecond
// still sort in call order.
func New() ID {
	return ID(ulid.Make().String())
}

// NewAt returns an ID stamped with t.
func NewAt(t time.Time) ID {
	return ID(ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String())
}

// Nonce returns a fresh single use token of 26 alphanumeric characters.
func Nonce() string {
	return New().String()
}

// Parse accepts only canonical ULIDs, surrounding whitespace aside.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return Zero, ErrInvalid
	}
	return ID(u.String()), nil
}

func (id ID) String() string { return string(id) }
