package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so a transaction scoped Store cannot open another
// transaction by accident.
type Store interface {
	Users() Users
	Bindings() Bindings
	Sessions() Sessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user. A taken username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
}

// Bindings persists the per-user hardware token preference. A user without a
// row has never saved preferences.
type Bindings interface {
	GetBinding(ctx context.Context, userID string) (domain.Binding, error)

	// UpsertBinding creates or replaces the row for b.UserID and bumps updated_at.
	UpsertBinding(ctx context.Context, b domain.Binding) error

	DeleteBinding(ctx context.Context, userID string) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByFingerprint returns the session whose bearer token hashes
	// to fingerprint, expired or not.
	GetSessionByFingerprint(ctx context.Context, fingerprint string) (domain.Session, error)

	// DeleteSession removes one session. Deleting an unknown id is not an error.
	DeleteSession(ctx context.Context, id string) error

	DeleteUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions removes sessions that expired at or before now and
	// reports how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
