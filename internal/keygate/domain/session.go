package domain

import "time"

// Session is a host login session. Only the fingerprint of the bearer token
// is stored.
type Session struct {
	ID               string // ULID
	UserID           string
	TokenFingerprint string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
