package domain

import "time"

// AuthResult is the discriminated outcome of every public authentication
// operation. Expected business failures land here with user-safe messages;
// infrastructure faults never do, they propagate as errors.
type AuthResult struct {
	Succeeded bool     `json:"succeeded"`
	Errors    []string `json:"errors,omitempty"`

	Tokens  *TokenPair `json:"tokens,omitempty"`
	Profile *Profile   `json:"profile,omitempty"`

	// LockedOut flags the one failure mode whose detail is deliberately
	// disclosed, including when the lockout ends.
	LockedOut  bool       `json:"locked_out,omitempty"`
	LockoutEnd *time.Time `json:"lockout_end,omitempty"`
}

// SuccessResult builds a successful AuthResult carrying tokens and profile.
func SuccessResult(tokens TokenPair, profile Profile) AuthResult {
	return AuthResult{
		Succeeded: true,
		Tokens:    &tokens,
		Profile:   &profile,
	}
}

// FailureResult builds a failed AuthResult with user-safe messages.
func FailureResult(messages ...string) AuthResult {
	return AuthResult{Errors: messages}
}

// LockoutResult builds the lockout failure, optionally carrying the unlock
// time when the store knows it.
func LockoutResult(until *time.Time) AuthResult {
	return AuthResult{
		Errors:     []string{"account is locked out due to repeated failed sign-in attempts"},
		LockedOut:  true,
		LockoutEnd: until,
	}
}
