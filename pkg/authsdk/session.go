package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Session is an authenticated host session.
type Session struct {
	client    *SDKClient
	token     string
	expiresAt time.Time
}

// NewSessionFromToken wraps a session token obtained elsewhere.
func (c *SDKClient) NewSessionFromToken(token string, expiresAt time.Time) *Session {
	return &Session{client: c, token: token, expiresAt: expiresAt}
}

func (s *Session) Token() string        { return s.token }
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// Preferences loads the hardware token settings.
func (s *Session) Preferences(ctx context.Context) (*PreferencesResponse, error) {
	resp, err := s.client.doRequest(ctx, http.MethodGet, "/v1/preferences", s.token, nil)
	if err != nil {
		return nil, err
	}

	var out PreferencesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// SavePreferences stores the hardware token settings. publicID may be a
// whole OTP; the host keeps only its first 12 characters.
func (s *Session) SavePreferences(ctx context.Context, required bool, publicID string) (*PreferencesResponse, error) {
	form := url.Values{FieldYubikeyPublicID: {publicID}}
	if required {
		form.Set(FieldYubikeyRequired, "1")
	}

	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/preferences", s.token, form)
	if err != nil {
		return nil, err
	}

	var out PreferencesResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout ends the session on the host.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/logout", s.token, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
