package service_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/keygate/pkg/yubico"
)

const (
	scenarioPublicID = "cccccbdgjger"
	scenarioOTP      = "cccccbdgjgergujjvtgrihdvhvkbiekekdus"
	foreignOTP       = "wrongidxxxx0gujjvtgrihdvhvkbiekekdus"
)

// stubVerifier stands in for the remote validation service and counts calls.
type stubVerifier struct {
	status   yubico.Status
	err      error
	delay    time.Duration
	panicMsg string
	noCtx    bool // ignore cancellation while delaying

	calls   atomic.Int32
	lastOTP atomic.Value
}

func (s *stubVerifier) Verify(ctx context.Context, otp string) (*yubico.Response, error) {
	s.calls.Add(1)
	s.lastOTP.Store(otp)

	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.delay > 0 {
		if s.noCtx {
			time.Sleep(s.delay)
		} else {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return nil, &yubico.Error{Kind: yubico.KindTimeout, Err: ctx.Err()}
			}
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.status != "" && s.status != yubico.StatusOK {
		return nil, &yubico.Error{Kind: yubico.KindStatus, Status: s.status}
	}
	return &yubico.Response{Status: yubico.StatusOK, OTP: otp}, nil
}

// recordingTerminator records every terminated session.
type recordingTerminator struct {
	err   error
	calls []string
}

func (r *recordingTerminator) TerminateSession(_ context.Context, userID, sessionID string) error {
	r.calls = append(r.calls, userID+"/"+sessionID)
	return r.err
}
