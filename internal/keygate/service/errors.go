package service

import "errors"

var (
	// ErrConfiguration means the second factor is enabled but cannot work,
	// e.g. validation credentials are missing. The host must not start.
	ErrConfiguration = errors.New("yubikey: invalid configuration")

	// ErrMalformedToken and ErrIdentifierMismatch are logged, never shown
	// to the user.
	ErrMalformedToken     = errors.New("yubikey: malformed token")
	ErrIdentifierMismatch = errors.New("yubikey: token does not belong to user")

	// ErrDisabled is returned by preference writes while the feature is off.
	ErrDisabled = errors.New("yubikey: second factor disabled")
)
