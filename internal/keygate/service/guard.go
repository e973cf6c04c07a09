package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
	"github.com/aussiebroadwan/keygate/internal/keygate/store"
)

// PublicIDInputSize is the width hint for the public id form field.
const PublicIDInputSize = 10

// BindingStore loads and saves per-user bindings. store.Bindings satisfies it.
type BindingStore interface {
	GetBinding(ctx context.Context, userID string) (domain.Binding, error)
	UpsertBinding(ctx context.Context, b domain.Binding) error
	DeleteBinding(ctx context.Context, userID string) error
}

// SessionTerminator ends the host session of a user who failed the second
// factor. It must be idempotent.
type SessionTerminator interface {
	TerminateSession(ctx context.Context, userID, sessionID string) error
}

// LoginAttempt is what the host hands over after the password check passed.
type LoginAttempt struct {
	UserID    string
	SessionID string
	OTP       string // the "_yubikey" form field
}

// Preferences is rendered by the host on the settings page.
type Preferences struct {
	Enabled           bool   `json:"enabled"`
	Required          bool   `json:"required"`
	PublicID          string `json:"public_id"`
	PublicIDInputSize int    `json:"public_id_input_size"`
}

// PreferencesForm is the submitted settings form.
type PreferencesForm struct {
	RequiredChecked bool   // "_yubikey_required" present
	PublicID        string // "_yubikey_id"
}

// Guard is the surface the host calls from its own login and settings
// pipelines.
type Guard struct {
	Policy   *Policy
	Engine   *Engine
	Bindings BindingStore
	Sessions SessionTerminator
	Logger   *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// OnLoginAttempt decides whether a freshly password-authenticated session
// may continue. A Rejected decision has already terminated the session when
// this returns. The error is non-nil only for infrastructure failures, in
// which case the decision is Rejected as well.
func (g *Guard) OnLoginAttempt(ctx context.Context, a LoginAttempt) (domain.Decision, error) {
	if !g.Policy.IsEnabled() {
		return domain.Accepted, nil
	}

	b, found, err := g.loadBinding(ctx, a.UserID)
	if err != nil {
		return domain.Rejected, errors.Join(
			fmt.Errorf("failed to load binding: %w", err),
			g.terminate(ctx, a),
		)
	}

	if !g.Policy.IsRequiredFor(b, found) {
		return domain.Accepted, nil
	}

	// Required without a stored row still goes through the engine: an empty
	// public id never matches.
	b.UserID = a.UserID
	if g.Engine.Decide(ctx, a.OTP, b) == domain.Accepted {
		return domain.Accepted, nil
	}

	return domain.Rejected, g.terminate(ctx, a)
}

// OnPreferencesLoad returns what the settings page should show.
func (g *Guard) OnPreferencesLoad(ctx context.Context, userID string) (Preferences, error) {
	if !g.Policy.IsEnabled() {
		return Preferences{}, nil
	}

	b, found, err := g.loadBinding(ctx, userID)
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to load binding: %w", err)
	}

	return Preferences{
		Enabled:           true,
		Required:          g.Policy.IsRequiredFor(b, found),
		PublicID:          b.PublicID,
		PublicIDInputSize: PublicIDInputSize,
	}, nil
}

// OnPreferencesSave stores the submitted settings. The public id is cut to
// its first 12 characters so a user may paste a whole OTP.
func (g *Guard) OnPreferencesSave(ctx context.Context, userID string, form PreferencesForm) error {
	if !g.Policy.IsEnabled() {
		return ErrDisabled
	}

	b := domain.Binding{
		UserID:    userID,
		Required:  form.RequiredChecked,
		PublicID:  domain.TruncatePublicID(form.PublicID),
		UpdatedAt: g.now(),
	}

	// A cleared form under a not-required default is the same as no row.
	if !b.Required && b.PublicID == "" && !g.Policy.RequiredDefault() {
		if err := g.Bindings.DeleteBinding(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete binding: %w", err)
		}
		g.logger().Info("yubikey preferences cleared", "user_id", userID)
		return nil
	}

	if err := g.Bindings.UpsertBinding(ctx, b); err != nil {
		return fmt.Errorf("failed to save binding: %w", err)
	}

	g.logger().Info("yubikey preferences saved",
		"user_id", userID,
		"required", b.Required,
		"public_id", b.PublicID,
	)
	return nil
}

func (g *Guard) loadBinding(ctx context.Context, userID string) (domain.Binding, bool, error) {
	b, err := g.Bindings.GetBinding(ctx, userID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Binding{UserID: userID}, false, nil
	case err != nil:
		return domain.Binding{}, false, err
	}
	return b, true, nil
}

func (g *Guard) terminate(ctx context.Context, a LoginAttempt) error {
	// The user is being logged out; do not let a cancelled request skip it.
	ctx = context.WithoutCancel(ctx)
	if err := g.Sessions.TerminateSession(ctx, a.UserID, a.SessionID); err != nil {
		g.logger().Error("failed to terminate session", "user_id", a.UserID, "err", err)
		return fmt.Errorf("failed to terminate session: %w", err)
	}
	return nil
}

func (g *Guard) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}
