package store

import (
	"context"
	"errors"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it. Sub-repositories keep concerns tidy and let tests
// substitute a single repo without faking the whole store.
type Store interface {
	Users() Users
	CompromisedTokens() CompromisedTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn errors
	// and committing otherwise. Preferred over Tx for multi-step writes
	// (e.g. lockout counter updates).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and duplicate-registration checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateLoginState writes the failed-attempt counter and lockout
	// deadline together, bumping updated_at.
	UpdateLoginState(ctx context.Context, userID string, failedLogins int, lockoutUntil *time.Time) error

	// UpdateLastLogin records a successful sign-in timestamp.
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error

	// UpdateSecurityStamp replaces the credential-versioning stamp.
	UpdateSecurityStamp(ctx context.Context, userID string, stamp string) error

	// UpdateRoles replaces the user's role set.
	UpdateRoles(ctx context.Context, userID string, roles []domain.Role) error
}

type CompromisedTokens interface {
	// IsCompromised reports whether the given token hash is blacklisted.
	IsCompromised(ctx context.Context, tokenHash string) (bool, error)

	// Add records a compromised token. Inserting a hash that is already
	// present is a no-op, reported by inserted=false. The unique constraint
	// on token_hash is the backstop against concurrent double-refresh.
	Add(ctx context.Context, t domain.CompromisedToken) (inserted bool, err error)

	// RemoveExpired deletes all records with expires_at before cutoff and
	// returns how many were removed.
	RemoveExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
