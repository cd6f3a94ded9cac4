package service

import (
	"context"
	"errors"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
	"github.com/quillworks/quill/internal/auth/store"
	"github.com/quillworks/quill/pkg/cryptox"
	"github.com/quillworks/quill/pkg/idx"
	"github.com/quillworks/quill/pkg/jwtx"
	"github.com/quillworks/quill/pkg/slogx"
)

// ErrInvalidToken is returned when a presented access token fails any check
// other than expiry.
var ErrInvalidToken = errors.New("invalid_token")

// TokenService owns token issuance and verification exclusively. The signer
// is constructed once at startup and handed in; there is no ambient key
// state. The only persistence it touches is the compromised-token store.
type TokenService struct {
	Signer     *jwtx.HS256
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueAccessToken builds and signs an access token for the user. The jti
// is fresh per call; claims carry id, email, display name, and roles.
// Pure computation, no side effects beyond the returned string.
func (s *TokenService) IssueAccessToken(u domain.User) (string, error) {
	claims := jwtx.NewAccessClaims(
		u.ID,
		u.Email,
		u.DisplayName,
		domain.RoleStrings(u.Roles),
		s.AccessTTL,
		s.Issuer,
		s.Audience,
		time.Now().UTC(),
	)
	return s.Signer.Sign(claims)
}

// IssueRefreshToken draws 64 bytes of secure randomness and base64url
// encodes them. The token embeds no user binding; the refresh flow
// reconstructs that from the access token's claims.
func (s *TokenService) IssueRefreshToken() (string, error) {
	return cryptox.GenerateToken(cryptox.TokenSize512)
}

// VerifyAccessToken reports whether the token passes full validation:
// signature, issuer, audience, and expiry with no clock-skew tolerance.
// Failures are not distinguished to the caller at this layer.
func (s *TokenService) VerifyAccessToken(token string) bool {
	_, err := s.Signer.Verify(token)
	return err == nil
}

// ExtractPrincipalIgnoringExpiry validates everything except the exp
// claim. The refresh flow calls this because the presented access token is
// expected to have already expired. Algorithm substitution is rejected by
// the pinned HS256 parser.
func (s *TokenService) ExtractPrincipalIgnoringExpiry(token string) (jwtx.Claims, error) {
	claims, err := s.Signer.VerifyIgnoringExpiry(token)
	if err != nil {
		return jwtx.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// IsRefreshTokenCompromised checks the blacklist for the token's
// fingerprint. Pure read, no mutation.
func (s *TokenService) IsRefreshTokenCompromised(ctx context.Context, rawToken string) (bool, error) {
	fp := cryptox.FingerprintToken(rawToken)
	return s.Store.CompromisedTokens().IsCompromised(ctx, fp)
}

// CompromiseRefreshToken blacklists the token. Blacklisting is the only
// invalidation mechanism there is; logout and refresh rotation both land
// here. Idempotent: re-blacklisting an already-recorded token succeeds.
func (s *TokenService) CompromiseRefreshToken(ctx context.Context, rawToken, reason string) error {
	_, err := s.recordCompromise(ctx, rawToken, reason)
	return err
}

// ConsumeRefreshToken blacklists the token and reports whether this call
// was the one that recorded it. The refresh flow uses the verdict to
// enforce one-time use: when two concurrent refreshes race on the same
// token, the store's unique hash constraint lets exactly one win.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, rawToken, reason string) (bool, error) {
	return s.recordCompromise(ctx, rawToken, reason)
}

func (s *TokenService) recordCompromise(ctx context.Context, rawToken, reason string) (bool, error) {
	now := time.Now().UTC()
	rec := domain.CompromisedToken{
		ID:            idx.New().String(),
		TokenHash:     cryptox.FingerprintToken(rawToken),
		Reason:        reason,
		CompromisedAt: now,
		ExpiresAt:     now.Add(s.RefreshTTL),
	}

	inserted, err := s.Store.CompromisedTokens().Add(ctx, rec)
	if err != nil {
		return false, err
	}
	if !inserted {
		slogx.FromContext(ctx).Warn("refresh token already blacklisted",
			"reason", reason,
		)
	}
	return inserted, nil
}

// PurgeExpiredCompromisedTokens removes blacklist rows whose expires_at
// has passed. Purging bounds growth only; by the time a row expires the
// raw token it fingerprints is past its own lifetime horizon.
func (s *TokenService) PurgeExpiredCompromisedTokens(ctx context.Context) error {
	removed, err := s.Store.CompromisedTokens().RemoveExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if removed > 0 {
		slogx.FromContext(ctx).Info("purged expired compromised tokens", "removed", removed)
	}
	return nil
}

// IssuePair returns a fresh access+refresh token pair for the user.
func (s *TokenService) IssuePair(u domain.User) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.IssueRefreshToken()
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, nil
}
