package yubico

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrMissingCredentials is returned when the client id or API key is empty.
var ErrMissingCredentials = errors.New("yubico: client id and api key must be set")

// Credentials is the client id / API key pair issued for a deployment.
type Credentials struct {
	ClientID string
	APIKey   string // base64 as issued by Yubico, or raw key material
}

// Validate reports ErrMissingCredentials if either half of the pair is empty.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" || strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Key returns the HMAC key. Keys that are not valid base64 are used verbatim.
func (c Credentials) Key() []byte {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.APIKey))
	if err != nil || len(key) == 0 {
		return []byte(c.APIKey)
	}
	return key
}
