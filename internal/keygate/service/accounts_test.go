package service_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/service"
	"github.com/aussiebroadwan/keygate/pkg/cryptox"
	"github.com/aussiebroadwan/keygate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newAccounts(t *testing.T) *service.AccountService {
	t.Helper()
	return &service.AccountService{
		Store:      newTestStore(t),
		Hasher:     cryptox.NewHasher("test-pepper"),
		SessionTTL: time.Hour,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	a := newAccounts(t)
	ctx := t.Context()

	u, err := a.Register(ctx, "  alice ", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.NotEqual(t, "correct horse", u.PasswordHash)

	_, err = a.Register(ctx, "alice", "another password")
	require.ErrorIs(t, err, service.ErrUsernameTaken)

	got, issued, err := a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, issued.Token)
	require.Equal(t, cryptox.FingerprintToken(issued.Token), issued.Session.TokenFingerprint)
	require.WithinDuration(t, time.Now().Add(time.Hour), issued.Session.ExpiresAt, time.Minute)

	userID, sessionID, ok, err := a.ResolveSession(ctx, issued.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, u.ID, userID)
	require.Equal(t, issued.Session.ID, sessionID)
}

func TestRegisterValidation(t *testing.T) {
	a := newAccounts(t)
	for _, tc := range []struct{ user, pass string }{
		{"", "long enough"},
		{"bob", "short"},
	} {
		_, err := a.Register(t.Context(), tc.user, tc.pass)
		require.ErrorIs(t, err, service.ErrInvalidInput)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	a := newAccounts(t)
	_, err := a.Register(t.Context(), "alice", "correct horse")
	require.NoError(t, err)

	_, _, err = a.Login(t.Context(), "alice", "wrong horse")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = a.Login(t.Context(), "mallory", "correct horse")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestTerminateSession(t *testing.T) {
	a := newAccounts(t)
	ctx := t.Context()
	_, err := a.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)
	u, issued, err := a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	require.NoError(t, a.TerminateSession(ctx, u.ID, issued.Session.ID))
	require.NoError(t, a.TerminateSession(ctx, u.ID, issued.Session.ID), "terminating twice is fine")

	_, _, ok, err := a.ResolveSession(ctx, issued.Token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTerminateSessionWithUnusableID(t *testing.T) {
	for _, sessionID := range []string{"", "not-a-session", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		t.Run(sessionID, func(t *testing.T) {
			a := newAccounts(t)
			ctx := t.Context()
			_, err := a.Register(ctx, "alice", "correct horse")
			require.NoError(t, err)
			u, first, err := a.Login(ctx, "alice", "correct horse")
			require.NoError(t, err)
			_, second, err := a.Login(ctx, "alice", "correct horse")
			require.NoError(t, err)

			require.NoError(t, a.TerminateSession(ctx, u.ID, sessionID))

			for _, issued := range []service.IssuedSession{first, second} {
				_, _, ok, err := a.ResolveSession(ctx, issued.Token)
				require.NoError(t, err)
				require.False(t, ok, "every session of the user ends")
			}
		})
	}
}

func TestTerminateSessionKeepsOtherSessions(t *testing.T) {
	a := newAccounts(t)
	ctx := t.Context()
	_, err := a.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)
	u, first, err := a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	_, second, err := a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	require.NoError(t, a.TerminateSession(ctx, u.ID, first.Session.ID))

	_, _, ok, err := a.ResolveSession(ctx, first.Token)
	require.NoError(t, err)
	require.False(t, ok)

	_, sessionID, ok, err := a.ResolveSession(ctx, second.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, second.Session.ID, sessionID)
}

func TestLoginLeavesNoSessionOnFailure(t *testing.T) {
	st := newTestStore(t)
	a := &service.AccountService{Store: st, Hasher: cryptox.NewHasher("test-pepper"), SessionTTL: time.Hour}
	ctx := t.Context()
	u, err := a.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)

	_, _, err = a.Login(ctx, "alice", "wrong horse")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	// The failed attempt wrote no session row.
	n, err := st.Sessions().DeleteExpiredSessions(ctx, time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	_, issued, err := a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, issued.Session.UserID)
}

func TestResolveExpiredSession(t *testing.T) {
	a := newAccounts(t)
	ctx := t.Context()
	_, err := a.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)
	_, issued, err := a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	a.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, ok, err := a.ResolveSession(ctx, issued.Token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHousekeepingDeletesExpiredSessions(t *testing.T) {
	a := newAccounts(t)
	ctx := t.Context()
	_, err := a.Register(ctx, "alice", "correct horse")
	require.NoError(t, err)

	a.SessionTTL = time.Millisecond
	a.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	_, _, err = a.Login(ctx, "alice", "correct horse")
	require.NoError(t, err)

	hk := service.NewHousekeepingService(a.Store, slogx.Discard(), time.Hour)
	require.EqualValues(t, 1, hk.Cleanup(ctx))
	require.EqualValues(t, 0, hk.Cleanup(ctx))
}

func TestHousekeepingStartStop(t *testing.T) {
	hk := service.NewHousekeepingService(newTestStore(t), slogx.Discard(), 10*time.Millisecond)
	hk.Start()
	time.Sleep(30 * time.Millisecond)
	hk.Stop()
}
