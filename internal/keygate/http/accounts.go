package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
	"github.com/aussiebroadwan/keygate/internal/keygate/service"
	"github.com/aussiebroadwan/keygate/pkg/authsdk"
	"github.com/aussiebroadwan/keygate/pkg/httpx"
	"github.com/aussiebroadwan/keygate/pkg/slogx"
)

// RegisterHandler handles POST /v1/users.
type RegisterHandler struct {
	Accounts *service.AccountService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid form body").WriteError(w)
		return
	}

	u, err := h.Accounts.Register(ctx, r.PostForm.Get(authsdk.FieldUsername), r.PostForm.Get(authsdk.FieldPassword))
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		authsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return
	case errors.Is(err, service.ErrUsernameTaken):
		authsdk.ErrUsernameTaken.WriteError(w)
		return
	case err != nil:
		log.Error("failed to register user", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Info("user registered", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{UserID: u.ID, Username: u.Username})
}

// LoginHandler handles POST /v1/login. The password is checked first; the
// hardware token check then runs against the freshly opened session.
type LoginHandler struct {
	Accounts *service.AccountService
	Guard    *service.Guard
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid form body").WriteError(w)
		return
	}

	user, issued, err := h.Accounts.Login(ctx, r.PostForm.Get(authsdk.FieldUsername), r.PostForm.Get(authsdk.FieldPassword))
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			log.Error("login failed", "err", err)
		}
		authsdk.ErrAuthenticationFailed.WriteError(w)
		return
	}

	decision, err := h.Guard.OnLoginAttempt(ctx, service.LoginAttempt{
		UserID:    user.ID,
		SessionID: issued.Session.ID,
		OTP:       r.PostForm.Get(authsdk.FieldYubikeyOTP),
	})
	if err != nil {
		log.Error("second factor check failed", "user_id", user.ID, "err", err)
	}
	if decision != domain.Accepted {
		log.Info("login rejected by second factor", "user_id", user.ID)
		authsdk.ErrAuthenticationFailed.WriteError(w)
		return
	}

	log.Info("login succeeded", "user_id", user.ID, "session_id", issued.Session.ID)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		SessionToken: issued.Token,
		ExpiresAt:    issued.Session.ExpiresAt,
	})
}

// LogoutHandler handles POST /v1/logout.
type LogoutHandler struct {
	Accounts *service.AccountService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	sessionID := httpx.SessionIDFromContext(ctx)
	if sessionID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.Accounts.TerminateSession(ctx, userID, sessionID); err != nil {
		slogx.FromContext(ctx).Error("failed to end session", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
