package domain

import (
	"slices"
	"time"
)

// Role is one of the closed set of roles a user can hold. Roles serialize
// as plain strings in token claims for interoperability.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

func (r Role) String() string { return string(r) }

// RoleStrings converts a role set to its wire form.
func RoleStrings(roles []Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.String())
	}
	return out
}

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string // argon2id encoded
	Roles        []Role

	// SecurityStamp is a credential-versioning value rotated whenever all
	// of a user's tokens should be considered revoked.
	SecurityStamp string

	// Lockout bookkeeping, maintained by the user store.
	FailedLogins int
	LockoutUntil *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRole reports whether the user holds the given role.
func (u User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

// IsAdmin is shorthand for HasRole(RoleAdmin).
func (u User) IsAdmin() bool { return u.HasRole(RoleAdmin) }

// Profile is the read-only projection of a user returned by the userinfo
// operation and alongside token pairs.
type Profile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
}

// ProfileOf builds the public projection of a user.
func ProfileOf(u User) Profile {
	return Profile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       RoleStrings(u.Roles),
	}
}
