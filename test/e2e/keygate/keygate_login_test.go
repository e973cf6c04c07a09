package keygate_test

import (
	"testing"

	"github.com/aussiebroadwan/keygate/pkg/authsdk"
	"github.com/aussiebroadwan/keygate/pkg/yubico"
	"github.com/stretchr/testify/require"
)

// TestPasswordOnlyDeployment verifies that a deployment without the second
// factor behaves like a plain password login.
func TestPasswordOnlyDeployment(t *testing.T) {
	baseURL := setupKeygateContainer(t, containerOptions{})
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session := registerAndLogin(t, client)

	prefs, err := session.Preferences(ctx)
	require.NoError(t, err)
	require.False(t, prefs.Enabled)

	_, err = session.SavePreferences(ctx, true, goodOTP)
	assertAPIError(t, err, authsdk.ErrorCodeFeatureDisabled)

	// The OTP field is ignored entirely.
	_, err = client.Login(ctx, testUsername, testPassword, "garbage")
	require.NoError(t, err)
}

// TestLoginWithEnrolledToken walks the full enrolment and login cycle.
func TestLoginWithEnrolledToken(t *testing.T) {
	vs := startValidationServer(t)
	baseURL := setupKeygateContainer(t, containerOptions{validation: vs})
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session := registerAndLogin(t, client)
	enrollToken(t, session)
	require.NoError(t, session.Logout(ctx))
	require.Zero(t, vs.requests.Load(), "enrolment never contacts the validation service")

	session, err := client.Login(ctx, testUsername, testPassword, goodOTP)
	require.NoError(t, err)
	require.EqualValues(t, 1, vs.requests.Load())

	prefs, err := session.Preferences(ctx)
	require.NoError(t, err)
	require.Equal(t, authsdk.PreferencesResponse{
		Enabled:           true,
		Required:          true,
		PublicID:          publicID,
		PublicIDInputSize: 10,
	}, *prefs)
}

// TestLoginRejectedByToken covers every way the second factor can fail. Each
// failure looks the same to the caller as a wrong password.
func TestLoginRejectedByToken(t *testing.T) {
	vs := startValidationServer(t)
	baseURL := setupKeygateContainer(t, containerOptions{validation: vs})
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session := registerAndLogin(t, client)
	enrollToken(t, session)

	tests := []struct {
		name        string
		otp         string
		status      yubico.Status
		wantRequest bool
	}{
		{"missing token", "", yubico.StatusOK, false},
		{"token of another key", foreignOTP, yubico.StatusOK, false},
		{"token too short", "cccccc", yubico.StatusOK, false},
		{"replayed token", goodOTP, yubico.StatusReplayedOTP, true},
		{"bad token", goodOTP, yubico.StatusBadOTP, true},
		{"backend error", goodOTP, yubico.StatusBackendError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs.setStatus(tt.status)
			before := vs.requests.Load()

			_, err := client.Login(ctx, testUsername, testPassword, tt.otp)
			assertAPIError(t, err, authsdk.ErrorCodeAuthenticationFailed)

			if tt.wantRequest {
				require.Greater(t, vs.requests.Load(), before)
			} else {
				require.Equal(t, before, vs.requests.Load())
			}
		})
	}

	// The earlier password-only session was not touched by failed logins of
	// other sessions.
	_, err := session.Preferences(ctx)
	require.NoError(t, err)
}

// TestGlobalRequiredDefault verifies that accounts without saved
// preferences follow the deployment default.
func TestGlobalRequiredDefault(t *testing.T) {
	vs := startValidationServer(t)
	baseURL := setupKeygateContainer(t, containerOptions{validation: vs, required: true})
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	_, err := client.Register(ctx, testUsername, testPassword)
	require.NoError(t, err)

	// No binding yet, so no token can match and the login fails closed.
	_, err = client.Login(ctx, testUsername, testPassword, goodOTP)
	assertAPIError(t, err, authsdk.ErrorCodeAuthenticationFailed)
	require.Zero(t, vs.requests.Load())
}

// TestOptOutSkipsVerification verifies that a user who unticks the
// checkbox is never asked for a token.
func TestOptOutSkipsVerification(t *testing.T) {
	vs := startValidationServer(t)
	baseURL := setupKeygateContainer(t, containerOptions{validation: vs})
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	session := registerAndLogin(t, client)
	prefs, err := session.SavePreferences(ctx, false, goodOTP+"trailing")
	require.NoError(t, err)
	require.False(t, prefs.Required)
	require.Equal(t, publicID, prefs.PublicID, "public id is cut to twelve characters")

	_, err = client.Login(ctx, testUsername, testPassword, "")
	require.NoError(t, err)
	require.Zero(t, vs.requests.Load())
}
