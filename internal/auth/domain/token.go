package domain

import "time"

// TokenPair is what the authentication endpoints return: the short-lived
// access token (JWT) and the opaque refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access-token expiry
}

// Reasons recorded against a blacklist entry. Free text at the store level;
// these cover the paths the service itself takes.
const (
	CompromiseReasonLogout      = "logout"
	CompromiseReasonRefresh     = "token_refresh"
	CompromiseReasonAdminRevoke = "admin_revoke"
)

// CompromisedToken is the stored evidence that a refresh token is no longer
// valid. Valid refresh tokens are never persisted; blacklisting IS the
// invalidation mechanism.
type CompromisedToken struct {
	ID            string
	TokenHash     string // deterministic fingerprint (base64url SHA-256), unique
	Reason        string
	CompromisedAt time.Time
	ExpiresAt     time.Time // once passed, the record is safe to purge
}
