package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/keygate/pkg/slogx"
)

// SessionResolver maps an opaque bearer session token to its owner.
// It returns ok=false for unknown, expired or revoked sessions.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (userID, sessionID string, ok bool, err error)
}

// AuthnMiddleware requires a live session bearer token and injects the
// user and session ids into the request context.
func AuthnMiddleware(sessions SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			userID, sessionID, ok, err := sessions.ResolveSession(ctx, token)
			if err != nil {
				log.Error("session lookup failed", "err", err)
				WriteError(w, http.StatusInternalServerError, "internal_error")
				return
			}
			if !ok {
				writeBearerError(w, "session is not valid")
				return
			}

			ctx = WithSession(ctx, userID, sessionID)
			ctx = slogx.WithUser(ctx, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "invalid_token")
}
