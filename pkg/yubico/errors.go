package yubico

import (
	"errors"
	"fmt"
)

var ErrNoEndpoints = errors.New("yubico: no endpoints configured")

// Status is the status field of a validation response.
type Status string

const (
	StatusOK                  Status = "OK"
	StatusBadOTP              Status = "BAD_OTP"
	StatusReplayedOTP         Status = "REPLAYED_OTP"
	StatusBadSignature        Status = "BAD_SIGNATURE"
	StatusMissingParameter    Status = "MISSING_PARAMETER"
	StatusNoSuchClient        Status = "NO_SUCH_CLIENT"
	StatusOperationNotAllowed Status = "OPERATION_NOT_ALLOWED"
	StatusBackendError        Status = "BACKEND_ERROR"
	StatusNotEnoughAnswers    Status = "NOT_ENOUGH_ANSWERS"
	StatusReplayedRequest     Status = "REPLAYED_REQUEST"
)

// Transient reports whether another endpoint may still give a usable answer.
func (s Status) Transient() bool {
	switch s {
	case StatusBackendError, StatusNotEnoughAnswers, StatusReplayedRequest:
		return true
	default:
		return false
	}
}

// Kind classifies verification failures for logging.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindMalformed
	KindSignature
	KindStatus
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed_response"
	case KindSignature:
		return "signature_mismatch"
	case KindStatus:
		return "status"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error describes why an OTP could not be verified.
type Error struct {
	Kind     Kind
	Status   Status // set for KindStatus, and for KindSignature when the unsigned answer had one
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	msg := "yubico: " + e.Kind.String()
	if e.Status != "" {
		msg += " " + string(e.Status)
	}
	if e.Endpoint != "" {
		msg += " from " + e.Endpoint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Terminal reports whether the answer settles the attempt so no other
// endpoint needs to be asked.
func (e *Error) Terminal() bool {
	return e.Kind == KindStatus && !e.Status.Transient()
}

// IsTerminal reports whether err is a terminal *Error.
func IsTerminal(err error) bool {
	var verr *Error
	return errors.As(err, &verr) && verr.Terminal()
}

func newError(kind Kind, ep Endpoint, format string, args ...any) *Error {
	return &Error{Kind: kind, Endpoint: ep.String(), Err: fmt.Errorf(format, args...)}
}
