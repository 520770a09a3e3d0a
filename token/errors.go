package token

import "github.com/pkg/errors"

// Validation failures are tagged so the resource server can pick the right
// HTTP response: 401 for anything about the token itself, 403 for scope.
var (
	ErrMalformed         = errors.New("token malformed")
	ErrSignatureInvalid  = errors.New("token signature invalid")
	ErrExpired           = errors.New("token expired or not yet valid")
	ErrIssuerMismatch    = errors.New("token issuer mismatch")
	ErrAudienceMismatch  = errors.New("token audience mismatch")
	ErrInsufficientScope = errors.New("token missing required scope")
)
