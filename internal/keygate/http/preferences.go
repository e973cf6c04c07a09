package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/keygate/internal/keygate/service"
	"github.com/aussiebroadwan/keygate/pkg/authsdk"
	"github.com/aussiebroadwan/keygate/pkg/httpx"
	"github.com/aussiebroadwan/keygate/pkg/slogx"
)

// PreferencesHandler serves the hardware token settings of the signed in user.
type PreferencesHandler struct {
	Guard *service.Guard
}

// HandleGet handles GET /v1/preferences.
func (h *PreferencesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	prefs, err := h.Guard.OnPreferencesLoad(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to load preferences", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(prefs))
}

// HandlePost handles POST /v1/preferences. The checkbox counts as set when
// the field is present at all, matching browser form semantics.
func (h *PreferencesHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidRequest.WithDescription("invalid form body").WriteError(w)
		return
	}

	form := service.PreferencesForm{
		RequiredChecked: r.PostForm.Has(authsdk.FieldYubikeyRequired),
		PublicID:        r.PostForm.Get(authsdk.FieldYubikeyPublicID),
	}

	err := h.Guard.OnPreferencesSave(ctx, userID, form)
	switch {
	case errors.Is(err, service.ErrDisabled):
		authsdk.ErrFeatureDisabled.WriteError(w)
		return
	case err != nil:
		log.Error("failed to save preferences", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	prefs, err := h.Guard.OnPreferencesLoad(ctx, userID)
	if err != nil {
		log.Error("failed to reload preferences", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(prefs))
}

func toResponse(p service.Preferences) authsdk.PreferencesResponse {
	return authsdk.PreferencesResponse{
		Enabled:           p.Enabled,
		Required:          p.Required,
		PublicID:          p.PublicID,
		PublicIDInputSize: p.PublicIDInputSize,
	}
}
