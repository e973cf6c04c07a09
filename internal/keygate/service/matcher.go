package service

import "crypto/subtle"

// MatchIdentifier reports whether a parsed public id equals the enrolled one.
// An empty enrolled id never matches.
func MatchIdentifier(parsed, stored string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(parsed), []byte(stored)) == 1
}
