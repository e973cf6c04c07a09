package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
	"github.com/aussiebroadwan/keygate/internal/keygate/store"
	"github.com/aussiebroadwan/keygate/internal/keygate/store/drivers/sqlite"
	"github.com/aussiebroadwan/keygate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s store.Store, username string) domain.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: "$argon2id$stub",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(t.Context(), u))
	return u
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(t.Context()))
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "alice")

	got, err := s.Users().GetUserByUsername(t.Context(), "alice")
	require.NoError(t, err)
	require.Equal(t, u, got)

	got, err = s.Users().GetUserByID(t.Context(), u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	_, err = s.Users().GetUserByUsername(t.Context(), "bob")
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(t.Context(), dup), store.ErrAlreadyExists)
}

func TestBindings(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "alice")
	ctx := t.Context()

	_, err := s.Bindings().GetBinding(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, s.Bindings().UpsertBinding(ctx, domain.Binding{
		UserID:    u.ID,
		Required:  true,
		PublicID:  "cccccbdgjgergujjvtgrihdvhvkbiekekdus",
		UpdatedAt: now,
	}))

	b, err := s.Bindings().GetBinding(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, b.Required)
	require.Equal(t, "cccccbdgjger", b.PublicID, "public id is stored truncated")
	require.Equal(t, now, b.UpdatedAt)

	require.NoError(t, s.Bindings().UpsertBinding(ctx, domain.Binding{UserID: u.ID, UpdatedAt: now}))
	b, err = s.Bindings().GetBinding(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, b.Required)
	require.Empty(t, b.PublicID)

	require.NoError(t, s.Bindings().DeleteBinding(ctx, u.ID))
	_, err = s.Bindings().GetBinding(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestBindingRequiresUser(t *testing.T) {
	s := newTestStore(t)
	err := s.Bindings().UpsertBinding(t.Context(), domain.Binding{UserID: "ghost", UpdatedAt: time.Now()})
	require.Error(t, err)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "alice")
	ctx := t.Context()
	now := time.Now().UTC().Truncate(time.Millisecond)

	live := domain.Session{ID: idx.New().String(), UserID: u.ID, TokenFingerprint: "fp-live", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	stale := domain.Session{ID: idx.New().String(), UserID: u.ID, TokenFingerprint: "fp-stale", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, s.Sessions().CreateSession(ctx, live))
	require.NoError(t, s.Sessions().CreateSession(ctx, stale))

	got, err := s.Sessions().GetSessionByFingerprint(ctx, "fp-live")
	require.NoError(t, err)
	require.Equal(t, live, got)

	n, err := s.Sessions().DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.Sessions().GetSessionByFingerprint(ctx, "fp-stale")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Sessions().DeleteSession(ctx, live.ID))
	require.NoError(t, s.Sessions().DeleteSession(ctx, live.ID), "deleting twice is fine")
	_, err = s.Sessions().GetSessionByFingerprint(ctx, "fp-live")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteUserSessions(t *testing.T) {
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	ctx := t.Context()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{ID: "a1", UserID: alice.ID, TokenFingerprint: "a1", CreatedAt: time.Now(), ExpiresAt: exp}))
	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{ID: "a2", UserID: alice.ID, TokenFingerprint: "a2", CreatedAt: time.Now(), ExpiresAt: exp}))
	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{ID: "b1", UserID: bob.ID, TokenFingerprint: "b1", CreatedAt: time.Now(), ExpiresAt: exp}))

	require.NoError(t, s.Sessions().DeleteUserSessions(ctx, alice.ID))

	_, err := s.Sessions().GetSessionByFingerprint(ctx, "a1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Sessions().GetSessionByFingerprint(ctx, "b1")
	require.NoError(t, err)
}

func TestWithTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now()
		if err := tx.Users().CreateUser(ctx, domain.User{ID: "u1", Username: "carol", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByUsername(ctx, "carol")
	require.ErrorIs(t, err, store.ErrNotFound, "rolled back")

	err = s.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now()
		if err := tx.Users().CreateUser(ctx, domain.User{ID: "u1", Username: "carol", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return tx.Bindings().UpsertBinding(ctx, domain.Binding{UserID: "u1", Required: true, PublicID: "vvvvvvvvvvvv", UpdatedAt: now})
	})
	require.NoError(t, err)

	b, err := s.Bindings().GetBinding(ctx, "u1")
	require.NoError(t, err)
	require.True(t, b.Required)
}
