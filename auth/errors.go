package auth

import "github.com/pkg/errors"

// ErrAuthenticationFailed covers both unknown users and wrong passwords.
// Callers must not reveal which one it was.
var ErrAuthenticationFailed = errors.New("authentication failed")

// AuthorizeError is a rejected authorization request. Redirectable says
// whether the error may be delivered on the client's redirect URI: only
// after the client and its redirect URI have been verified. Before that,
// redirecting would hand the error to an attacker-chosen location.
type AuthorizeError struct {
	Err          error
	Redirectable bool
}

func (e *AuthorizeError) Error() string { return e.Err.Error() }

func (e *AuthorizeError) Unwrap() error { return e.Err }
