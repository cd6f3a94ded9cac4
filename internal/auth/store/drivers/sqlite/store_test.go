package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/store"
	"github.com/quillworks/quill/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func testUser() domain.User {
	return domain.User{
		ID:            idx.New().String(),
		Email:         "a@x.com",
		DisplayName:   "Alice",
		PasswordHash:  "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Roles:         []domain.Role{domain.RoleUser},
		SecurityStamp: "stamp-1",
	}
}

func TestUsersRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser()
	require.NoError(t, s.Users().CreateUser(ctx, u))

	t.Run("duplicate email is ErrAlreadyExists", func(t *testing.T) {
		dup := testUser()
		dup.ID = idx.New().String()
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("lookup by id and email", func(t *testing.T) {
		byID, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)
		require.Equal(t, []domain.Role{domain.RoleUser}, byID.Roles)

		byEmail, err := s.Users().GetUserByEmail(ctx, "A@X.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID, "email lookup is case-insensitive")
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.Users().UpdateSecurityStamp(ctx, "nope", "x")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("login state round trip", func(t *testing.T) {
		until := time.Now().UTC().Add(15 * time.Minute).Truncate(time.Second)
		require.NoError(t, s.Users().UpdateLoginState(ctx, u.ID, 3, &until))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, 3, got.FailedLogins)
		require.NotNil(t, got.LockoutUntil)
		require.WithinDuration(t, until, *got.LockoutUntil, time.Second)

		require.NoError(t, s.Users().UpdateLoginState(ctx, u.ID, 0, nil))
		got, err = s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Zero(t, got.FailedLogins)
		require.Nil(t, got.LockoutUntil)
	})

	t.Run("roles update", func(t *testing.T) {
		require.NoError(t, s.Users().UpdateRoles(ctx, u.ID, []domain.Role{domain.RoleUser, domain.RoleAdmin}))
		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.IsAdmin())
	})

	t.Run("last login and stamp updates", func(t *testing.T) {
		at := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, s.Users().UpdateLastLogin(ctx, u.ID, at))
		require.NoError(t, s.Users().UpdateSecurityStamp(ctx, u.ID, "stamp-2"))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastLoginAt)
		require.Equal(t, "stamp-2", got.SecurityStamp)
	})
}

func TestCompromisedTokensRepo(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	rec := domain.CompromisedToken{
		ID:            idx.New().String(),
		TokenHash:     "hash-1",
		Reason:        domain.CompromiseReasonLogout,
		CompromisedAt: now,
		ExpiresAt:     now.Add(7 * 24 * time.Hour),
	}

	t.Run("add then lookup", func(t *testing.T) {
		inserted, err := s.CompromisedTokens().Add(ctx, rec)
		require.NoError(t, err)
		require.True(t, inserted)

		found, err := s.CompromisedTokens().IsCompromised(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, found)

		found, err = s.CompromisedTokens().IsCompromised(ctx, "hash-other")
		require.NoError(t, err)
		require.False(t, found)
	})

	t.Run("duplicate hash is a no-op", func(t *testing.T) {
		dup := rec
		dup.ID = idx.New().String()
		inserted, err := s.CompromisedTokens().Add(ctx, dup)
		require.NoError(t, err)
		require.False(t, inserted)
	})

	t.Run("remove expired honours the cutoff", func(t *testing.T) {
		expired := domain.CompromisedToken{
			ID:            idx.New().String(),
			TokenHash:     "hash-expired",
			Reason:        domain.CompromiseReasonRefresh,
			CompromisedAt: now.Add(-10 * 24 * time.Hour),
			ExpiresAt:     now.Add(-3 * 24 * time.Hour),
		}
		inserted, err := s.CompromisedTokens().Add(ctx, expired)
		require.NoError(t, err)
		require.True(t, inserted)

		removed, err := s.CompromisedTokens().RemoveExpired(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, removed)

		// The unexpired record survives.
		found, err := s.CompromisedTokens().IsCompromised(ctx, "hash-1")
		require.NoError(t, err)
		require.True(t, found)

		found, err = s.CompromisedTokens().IsCompromised(ctx, "hash-expired")
		require.NoError(t, err)
		require.False(t, found)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sentinel := store.ErrAlreadyExists
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, testUser()); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = s.Users().GetUserByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}
