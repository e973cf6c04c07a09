/*
Package authsdk is a Go client for the keygate reference host.

It wraps the registration, login, preferences and health endpoints. Login
submits the password together with the hardware token OTP, exactly as the
host's login form would:

	client := authsdk.NewSDKClient("http://localhost:8080")

	session, err := client.Login(ctx, "alice", "correct horse", otp)
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeAuthenticationFailed {
			// wrong password, wrong token, or the token was rejected
		}
		return err
	}
	defer session.Logout(ctx)

	prefs, err := session.Preferences(ctx)

A failed second factor is indistinguishable from a wrong password on the wire.
*/
package authsdk
