package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// TokenSize256 is the byte length of session tokens: 256 bits, 43 characters
// once encoded.
const TokenSize256 = 32

var tokenEncoding = base64.RawURLEncoding

// GenerateToken returns size random bytes as unpadded base64url.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return tokenEncoding.EncodeToString(buf), nil
}

// WellFormedToken reports whether token could have come from
// GenerateToken(size). It lets callers drop garbage before a lookup.
func WellFormedToken(token string, size int) bool {
	if len(token) != tokenEncoding.EncodedLen(size) {
		return false
	}
	_, err := tokenEncoding.DecodeString(token)
	return err == nil
}

// FingerprintToken is what gets stored in place of a bearer token.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return tokenEncoding.EncodeToString(sum[:])
}
