package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum accepted HMAC secret length in bytes.
// Anything shorter than the HS256 block-derived 32 bytes is a
// misconfiguration and rejected at construction time.
const MinSecretLength = 32

var (
	ErrSecretTooShort = errors.New("jwtx: signing secret must be at least 32 bytes")

	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrAudience    = errors.New("jwtx: audience mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// HS256 signs and verifies JWTs with a single static symmetric key.
// It is constructed once at startup and passed by reference into the token
// service; there is no ambient/global key access.
type HS256 struct {
	secret   []byte
	issuer   string
	audience []string
}

// NewHS256 creates a signer/verifier from the given secret. The secret must
// be at least MinSecretLength bytes.
func NewHS256(secret, issuer string, audience []string) (*HS256, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &HS256{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Alg returns the JWA name of the signing algorithm.
func (s *HS256) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign produces a compact serialized JWT for the given claims.
func (s *HS256) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify fully validates a token: signature, algorithm, issuer, audience,
// and expiry with zero leeway. Returns the parsed claims on success.
func (s *HS256) Verify(tokenStr string) (Claims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return Claims{}, err
	}

	if err := claims.ValidateIssuer(s.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(s.audience); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// VerifyIgnoringExpiry validates everything Verify does except the exp
// claim. This exists for the refresh flow, where the presented access token
// is expected to have already expired. The signing algorithm is still
// pinned to HS256, so an algorithm-substitution token fails here too.
func (s *HS256) VerifyIgnoringExpiry(tokenStr string) (Claims, error) {
	claims, err := s.parse(tokenStr)
	if err != nil {
		return Claims{}, err
	}

	if err := claims.ValidateIssuer(s.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(s.audience); err != nil {
		return Claims{}, err
	}

	return claims, nil
}

// parse checks the signature and algorithm only. Claim requirements are
// layered on by the callers so the expiry-ignoring path can share it.
func (s *HS256) parse(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrAlgMismatch
		}
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable), errors.Is(err, ErrAlgMismatch):
		return Claims{}, ErrAlgMismatch
	default:
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, ErrMalformed
	}

	return *claims, nil
}
