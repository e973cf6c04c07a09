package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
	"github.com/aussiebroadwan/keygate/internal/keygate/store"
	"github.com/aussiebroadwan/keygate/pkg/cryptox"
	"github.com/aussiebroadwan/keygate/pkg/idx"
)

const (
	DefaultSessionTTL = 12 * time.Hour

	minPasswordLength = 8
	maxUsernameLength = 64
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidInput       = errors.New("invalid input")
)

// IssuedSession carries the bearer token, which is only ever returned once.
type IssuedSession struct {
	Session domain.Session
	Token   string
}

// AccountService is the host's first factor: users, passwords and sessions.
type AccountService struct {
	Store      store.Store
	Hasher     *cryptox.Hasher
	SessionTTL time.Duration
	Now        func() time.Time
}

// Register creates a user with an argon2id password hash.
func (s *AccountService) Register(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return domain.User{}, fmt.Errorf("%w: username must be 1-%d characters", ErrInvalidInput, maxUsernameLength)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Login checks the password and opens a session in one transaction. The
// second factor runs afterwards and may terminate the session again.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.User, IssuedSession, error) {
	var (
		u      domain.User
		issued IssuedSession
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		u, err = tx.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCredentials
		}
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}

		if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
			if errors.Is(err, cryptox.ErrPasswordMismatch) {
				return ErrInvalidCredentials
			}
			return fmt.Errorf("failed to verify password: %w", err)
		}

		issued, err = s.openSession(ctx, tx.Sessions(), u.ID)
		return err
	})
	if err != nil {
		return domain.User{}, IssuedSession{}, err
	}
	return u, issued, nil
}

func (s *AccountService) openSession(ctx context.Context, sessions store.Sessions, userID string) (IssuedSession, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return IssuedSession{}, err
	}

	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := s.now()
	sess := domain.Session{
		ID:               idx.NewAt(now).String(),
		UserID:           userID,
		TokenFingerprint: cryptox.FingerprintToken(token),
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
	}
	if err := sessions.CreateSession(ctx, sess); err != nil {
		return IssuedSession{}, fmt.Errorf("failed to create session: %w", err)
	}
	return IssuedSession{Session: sess, Token: token}, nil
}

// ResolveSession maps a bearer token to a live session.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (string, string, bool, error) {
	if !cryptox.WellFormedToken(token, cryptox.TokenSize256) {
		return "", "", false, nil
	}
	sess, err := s.Store.Sessions().GetSessionByFingerprint(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	if sess.Expired(s.now()) {
		return "", "", false, nil
	}
	return sess.UserID, sess.ID, true, nil
}

// TerminateSession deletes the session. Unknown sessions are ignored. An
// empty or malformed session id ends every session of the user.
func (s *AccountService) TerminateSession(ctx context.Context, userID, sessionID string) error {
	id, err := idx.Parse(sessionID)
	if err != nil {
		return s.Store.Sessions().DeleteUserSessions(ctx, userID)
	}
	return s.Store.Sessions().DeleteSession(ctx, id.String())
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
