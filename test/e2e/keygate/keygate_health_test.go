package keygate_test

import (
	"testing"

	"github.com/aussiebroadwan/keygate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check.
func TestLivezEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(setupKeygateContainer(t, containerOptions{}))

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies readiness with and without the second factor.
func TestReadyzEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		client := authsdk.NewSDKClient(setupKeygateContainer(t, containerOptions{}))

		health, err := client.GetReadiness(t.Context())
		assertHealthy(t, health, err)
		require.NotNil(t, health.Checks)
		require.Equal(t, "ok", health.Checks.Database)
		require.Equal(t, "disabled", health.Checks.Verification)
	})

	t.Run("enabled", func(t *testing.T) {
		vs := startValidationServer(t)
		client := authsdk.NewSDKClient(setupKeygateContainer(t, containerOptions{validation: vs}))

		health, err := client.GetReadiness(t.Context())
		assertHealthy(t, health, err)
		require.Equal(t, "ok", health.Checks.Verification)
	})
}
