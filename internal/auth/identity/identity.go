// Package identity implements the user-store collaborator: account
// creation, password verification, and failed-attempt lockout accounting.
// The authentication service consumes it through an interface so the
// orchestration layer stays ignorant of hashing and counter mechanics.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/store"
	"github.com/quillworks/quill/pkg/cryptox"
	"github.com/quillworks/quill/pkg/idx"
	"github.com/quillworks/quill/pkg/slogx"
)

const (
	// MaxFailedAttempts is how many consecutive bad passwords flip an
	// account into lockout.
	MaxFailedAttempts = 5

	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 15 * time.Minute

	// MinPasswordLength is the password policy floor.
	MinPasswordLength = 8
)

var (
	ErrEmailTaken     = errors.New("identity: email already registered")
	ErrPasswordPolicy = fmt.Errorf("identity: password must be at least %d characters", MinPasswordLength)
)

// PasswordCheck is the outcome of a password verification attempt. A failed
// attempt may flip the account into lockout as a side effect, which is
// reported alongside the verdict.
type PasswordCheck struct {
	Succeeded bool
	LockedOut bool
}

type UserStore struct {
	Store store.Store
}

func NewUserStore(st store.Store) *UserStore {
	return &UserStore{Store: st}
}

// FindByEmail returns the user registered under email, or
// store.ErrNotFound.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, email)
}

// FindByID returns the user with the given id, or store.ErrNotFound.
func (s *UserStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

// Create registers a new user with the given password. The password is
// policy-checked and argon2id-hashed here; callers never see the hash.
func (s *UserStore) Create(ctx context.Context, u domain.User, password string) (domain.User, error) {
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrPasswordPolicy
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("identity: hash password: %w", err)
	}

	if u.ID == "" {
		u.ID = idx.New().String()
	}
	u.PasswordHash = hash
	u.SecurityStamp = cryptox.MustGenerateToken(cryptox.TokenSize128)

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return u, nil
}

// CheckPassword verifies the password and maintains the failed-attempt
// counter. A correct password resets the counter; the fifth consecutive
// failure locks the account for LockoutDuration.
func (s *UserStore) CheckPassword(ctx context.Context, u domain.User, password string) (PasswordCheck, error) {
	if s.IsLockedOut(u) {
		return PasswordCheck{LockedOut: true}, nil
	}

	verifyErr := cryptox.VerifyPassword(password, u.PasswordHash)
	if verifyErr != nil && !errors.Is(verifyErr, cryptox.ErrPasswordMismatch) {
		// Unparseable hash is a data problem, not a bad password.
		return PasswordCheck{}, fmt.Errorf("identity: verify password: %w", verifyErr)
	}

	if verifyErr == nil {
		if u.FailedLogins > 0 {
			if err := s.Store.Users().UpdateLoginState(ctx, u.ID, 0, nil); err != nil {
				return PasswordCheck{}, err
			}
		}
		return PasswordCheck{Succeeded: true}, nil
	}

	check := PasswordCheck{}
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		fresh, err := tx.Users().GetUserByID(ctx, u.ID)
		if err != nil {
			return err
		}

		failed := fresh.FailedLogins + 1
		var until *time.Time
		if failed >= MaxFailedAttempts {
			t := time.Now().UTC().Add(LockoutDuration)
			until = &t
			check.LockedOut = true
		}
		return tx.Users().UpdateLoginState(ctx, fresh.ID, failed, until)
	})
	if err != nil {
		return PasswordCheck{}, err
	}

	if check.LockedOut {
		slogx.FromContext(ctx).Warn("account locked out",
			"user_id", u.ID,
			"lockout_minutes", int(LockoutDuration.Minutes()),
		)
	}
	return check, nil
}

// IsLockedOut reports whether the user's lockout deadline is in the future.
func (s *UserStore) IsLockedOut(u domain.User) bool {
	return u.LockoutUntil != nil && time.Now().UTC().Before(*u.LockoutUntil)
}

// GetLockoutEnd returns when the lockout ends, or nil when not locked.
func (s *UserStore) GetLockoutEnd(u domain.User) *time.Time {
	if !s.IsLockedOut(u) {
		return nil
	}
	return u.LockoutUntil
}

// GetRoles returns the user's role set.
func (s *UserStore) GetRoles(u domain.User) []domain.Role {
	return u.Roles
}

// AddToRole grants the role when the user doesn't already hold it.
func (s *UserStore) AddToRole(ctx context.Context, u domain.User, role domain.Role) error {
	if u.HasRole(role) {
		return nil
	}
	return s.Store.Users().UpdateRoles(ctx, u.ID, append(u.Roles, role))
}

// UpdateSecurityStamp rotates the user's credential-versioning stamp.
func (s *UserStore) UpdateSecurityStamp(ctx context.Context, userID string) error {
	return s.Store.Users().UpdateSecurityStamp(ctx, userID, cryptox.MustGenerateToken(cryptox.TokenSize128))
}

// RecordLogin stamps last_login_at. Best-effort by contract; callers may
// ignore the error.
func (s *UserStore) RecordLogin(ctx context.Context, userID string) error {
	return s.Store.Users().UpdateLastLogin(ctx, userID, time.Now().UTC())
}
