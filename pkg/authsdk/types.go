package authsdk

import "time"

// Form field names shared by the host's HTML forms and this client.
const (
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldYubikeyOTP      = "_yubikey"
	FieldYubikeyRequired = "_yubikey_required"
	FieldYubikeyPublicID = "_yubikey_id"
)

// RegisterResponse is returned from POST /v1/users.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// LoginResponse is returned from POST /v1/login once both factors passed.
type LoginResponse struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PreferencesResponse mirrors the settings page for the hardware token.
type PreferencesResponse struct {
	Enabled           bool   `json:"enabled"`
	Required          bool   `json:"required"`
	PublicID          string `json:"public_id"`
	PublicIDInputSize int    `json:"public_id_input_size"`
}

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database     string `json:"database"`
	Verification string `json:"verification"`
}
