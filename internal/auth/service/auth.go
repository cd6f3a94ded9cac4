package service

import (
	"context"
	"errors"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/identity"
	"github.com/quillworks/quill/internal/auth/store"
	"github.com/quillworks/quill/pkg/slogx"
)

const msgInvalidCredentials = "invalid email or password"

// Users is the identity collaborator the auth flows need. Satisfied by
// *identity.UserStore; narrowed here so service tests can substitute it.
type Users interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User, password string) (domain.User, error)
	CheckPassword(ctx context.Context, u domain.User, password string) (identity.PasswordCheck, error)
	IsLockedOut(u domain.User) bool
	GetLockoutEnd(u domain.User) *time.Time
	AddToRole(ctx context.Context, u domain.User, role domain.Role) error
	UpdateSecurityStamp(ctx context.Context, userID string) error
	RecordLogin(ctx context.Context, userID string) error
}

// AuthService orchestrates the public authentication flows: register,
// login, refresh, logout, revoke-all. Token mechanics live in TokenService;
// credential and lockout state in the identity layer.
type AuthService struct {
	Users  Users
	Tokens *TokenService
}

// Register creates the account, grants the default role, and signs the new
// user straight in with a fresh token pair.
func (s *AuthService) Register(ctx context.Context, email, displayName, password, confirmPassword string) (domain.AuthResult, error) {
	if password != confirmPassword {
		return domain.FailureResult("passwords do not match"), nil
	}

	u, err := s.Users.Create(ctx, domain.User{
		Email:       email,
		DisplayName: displayName,
	}, password)
	switch {
	case errors.Is(err, identity.ErrEmailTaken):
		return domain.FailureResult("an account with this email already exists"), nil
	case errors.Is(err, identity.ErrPasswordPolicy):
		return domain.FailureResult("password does not meet the minimum length requirement"), nil
	case err != nil:
		return domain.AuthResult{}, err
	}

	if err := s.Users.AddToRole(ctx, u, domain.RoleUser); err != nil {
		return domain.AuthResult{}, err
	}
	u.Roles = append(u.Roles, domain.RoleUser)

	return s.signIn(ctx, u)
}

// Login verifies credentials. Unknown email and wrong password produce the
// same generic failure; lockout is the one mode disclosed in detail.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return domain.FailureResult(msgInvalidCredentials), nil
	}
	if err != nil {
		return domain.AuthResult{}, err
	}

	check, err := s.Users.CheckPassword(ctx, u, password)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if check.LockedOut {
		return domain.LockoutResult(s.Users.GetLockoutEnd(u)), nil
	}
	if !check.Succeeded {
		return domain.FailureResult(msgInvalidCredentials), nil
	}

	return s.signIn(ctx, u)
}

// Refresh rotates a token pair. The expired access token supplies the
// principal (signature still fully checked); the refresh token is consumed
// so it can never be replayed. Order matters: the blacklist is consulted
// before anything is derived from the presented tokens.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (domain.AuthResult, error) {
	compromised, err := s.Tokens.IsRefreshTokenCompromised(ctx, refreshToken)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if compromised {
		slogx.FromContext(ctx).Warn("refresh attempted with compromised token")
		return domain.FailureResult("refresh token is no longer valid"), nil
	}

	claims, err := s.Tokens.ExtractPrincipalIgnoringExpiry(accessToken)
	if err != nil {
		return domain.FailureResult("invalid access token"), nil
	}

	u, err := s.Users.FindByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.FailureResult("invalid access token"), nil
	}
	if err != nil {
		return domain.AuthResult{}, err
	}

	if s.Users.IsLockedOut(u) {
		return domain.LockoutResult(s.Users.GetLockoutEnd(u)), nil
	}

	consumed, err := s.Tokens.ConsumeRefreshToken(ctx, refreshToken, domain.CompromiseReasonRefresh)
	if err != nil {
		return domain.AuthResult{}, err
	}
	if !consumed {
		// A concurrent refresh won the race on the same token.
		return domain.FailureResult("refresh token is no longer valid"), nil
	}

	// Opportunistic cleanup; the housekeeping loop is the real owner.
	if err := s.Tokens.PurgeExpiredCompromisedTokens(ctx); err != nil {
		slogx.FromContext(ctx).Warn("purge during refresh failed", "error", err)
	}

	return s.signIn(ctx, u)
}

// Logout blacklists the refresh token. Idempotent: logging out twice, or
// with a token that was already rotated away, still succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (domain.AuthResult, error) {
	if err := s.Tokens.CompromiseRefreshToken(ctx, refreshToken, domain.CompromiseReasonLogout); err != nil {
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{Succeeded: true}, nil
}

// RevokeAllTokens rotates the user's security stamp, versioning their
// credentials forward. Access tokens already in the wild stay valid until
// exp since verification is pure; the stamp guards future issuance paths.
func (s *AuthService) RevokeAllTokens(ctx context.Context, userID string) (domain.AuthResult, error) {
	if _, err := s.Users.FindByID(ctx, userID); errors.Is(err, store.ErrNotFound) {
		return domain.FailureResult("user not found"), nil
	} else if err != nil {
		return domain.AuthResult{}, err
	}

	if err := s.Users.UpdateSecurityStamp(ctx, userID); err != nil {
		return domain.AuthResult{}, err
	}

	slogx.FromContext(ctx).Info("security stamp rotated", "user_id", userID)
	return domain.AuthResult{Succeeded: true}, nil
}

// GetUserInfo returns the public profile for an authenticated subject.
func (s *AuthService) GetUserInfo(ctx context.Context, userID string) (domain.Profile, error) {
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.ProfileOf(u), nil
}

func (s *AuthService) signIn(ctx context.Context, u domain.User) (domain.AuthResult, error) {
	pair, err := s.Tokens.IssuePair(u)
	if err != nil {
		return domain.AuthResult{}, err
	}

	if err := s.Users.RecordLogin(ctx, u.ID); err != nil {
		slogx.FromContext(ctx).Warn("recording last login failed", "user_id", u.ID, "error", err)
	}

	return domain.SuccessResult(pair, domain.ProfileOf(u)), nil
}
