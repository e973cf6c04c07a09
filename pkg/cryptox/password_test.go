package cryptox_test

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/keygate/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := cryptox.NewHasher("test-pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m="))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
			require.ErrorIs(t, h.Verify(tt.password+"x", hash), cryptox.ErrPasswordMismatch)
		})
	}
}

func TestHashUsesUniqueSalts(t *testing.T) {
	h := cryptox.NewHasher("pepper")
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyDependsOnPepper(t *testing.T) {
	hash, err := cryptox.NewHasher("pepper-one").Hash("secret")
	require.NoError(t, err)
	require.ErrorIs(t, cryptox.NewHasher("pepper-two").Verify("secret", hash), cryptox.ErrPasswordMismatch)
}

func TestVerifyInvalidHash(t *testing.T) {
	h := cryptox.NewHasher("pepper")
	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
	} {
		require.ErrorIs(t, h.Verify("x", encoded), cryptox.ErrInvalidHash, encoded)
	}
}
