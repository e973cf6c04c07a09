/*
Package yubico implements a client for the Yubico OTP validation protocol
(version 2.0), as served by YubiCloud or a self-hosted validation server.

# Overview

A Client holds the API credentials issued for the deployment and one or more
validation endpoints. Verify sends the complete OTP to the endpoints and only
reports success when a response carries status=OK, echoes the request's otp
and nonce, and is signed with the API key:

	creds := yubico.Credentials{ClientID: "12345", APIKey: "base64key=="}
	client, err := yubico.NewClient(creds, yubico.DefaultEndpoints()...)
	if err != nil {
		return err
	}

	resp, err := client.Verify(ctx, otp)
	if err != nil {
		var verr *yubico.Error
		if errors.As(err, &verr) {
			log.Warn("otp rejected", "kind", verr.Kind, "status", verr.Status)
		}
		return err
	}

# Redundancy

Endpoints are tried in the configured order. A terminal answer (OK, or a
signed negative status such as REPLAYED_OTP) ends the attempt; transport
failures, unsigned or malformed answers and transient statuses
(BACKEND_ERROR, NOT_ENOUGH_ANSWERS, REPLAYED_REQUEST) fall through to the next
endpoint. With Parallel set, every endpoint is queried at once and the first
terminal answer wins.

The client never retries the same endpoint. Deadlines come from the context
passed to Verify.
*/
package yubico
