package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
	"github.com/aussiebroadwan/keygate/pkg/yubico"
)

// Verifier validates a full OTP with a remote service. *yubico.Client
// satisfies it.
type Verifier interface {
	Verify(ctx context.Context, otp string) (*yubico.Response, error)
}

// Engine turns a submitted OTP and the user's binding into a Decision.
// Every failure path ends in domain.Rejected and the cause is only logged.
type Engine struct {
	Verifier      Verifier
	VerifyTimeout time.Duration
	Logger        *slog.Logger
}

func NewEngine(v Verifier, timeout time.Duration, logger *slog.Logger) *Engine {
	if timeout <= 0 {
		timeout = yubico.DefaultTimeout
	}
	return &Engine{Verifier: v, VerifyTimeout: timeout, Logger: logger}
}

// Decide parses raw, matches it against the binding and, only on a match,
// asks the verifier. The verifier is never called for a foreign token.
func (e *Engine) Decide(ctx context.Context, raw string, b domain.Binding) domain.Decision {
	publicID, token := ParseToken(raw)
	log := e.logger().With("user_id", b.UserID, "public_id", publicID)

	if raw == "" {
		log.Info("yubikey rejected", "reason", ErrMalformedToken)
		return domain.Rejected
	}
	if !MatchIdentifier(publicID, b.PublicID) {
		log.Info("yubikey rejected", "reason", ErrIdentifierMismatch)
		return domain.Rejected
	}

	if err := e.verify(ctx, token); err != nil {
		attrs := []any{"reason", maskToken(err.Error(), token)}
		var verr *yubico.Error
		if errors.As(err, &verr) {
			attrs = append(attrs, "kind", verr.Kind.String(), "status", string(verr.Status), "endpoint", verr.Endpoint)
		}
		log.Warn("yubikey rejected", attrs...)
		return domain.Rejected
	}

	log.Info("yubikey accepted")
	return domain.Accepted
}

// maskToken keeps the public id of token in msg and hides the rest. A
// Verifier may quote its input in an error.
func maskToken(msg, token string) string {
	if len(token) <= domain.PublicIDLength {
		return msg
	}
	return strings.ReplaceAll(msg, token, token[:domain.PublicIDLength]+"[redacted]")
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// verify runs the remote check under the engine's budget. The verifier runs
// on its own goroutine so neither a panic nor a verifier that ignores ctx can
// hold the login past the budget.
func (e *Engine) verify(ctx context.Context, token string) error {
	if e.Verifier == nil {
		return fmt.Errorf("%w: no verifier", ErrConfiguration)
	}

	timeout := e.VerifyTimeout
	if timeout <= 0 {
		timeout = yubico.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("verifier panic: %v", r)
			}
		}()

		resp, err := e.Verifier.Verify(ctx, token)
		if err == nil && (resp == nil || resp.Status != yubico.StatusOK) {
			err = errors.New("verifier returned no successful response")
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("verification abandoned: %w", ctx.Err())
	}
}
