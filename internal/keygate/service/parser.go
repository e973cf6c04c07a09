package service

import "github.com/aussiebroadwan/keygate/internal/keygate/domain"

// ParseToken splits a raw OTP into the public id of the physical token and
// the full token to send for validation. It never fails: input shorter than
// domain.PublicIDLength yields the whole input as the public id.
//
// The prefix is deliberately not checked against the modhex alphabet.
func ParseToken(raw string) (publicID, fullToken string) {
	return domain.TruncatePublicID(raw), raw
}
