package oauth2

import (
	"fmt"
	"net/url"
)

// ErrorCode is an RFC 6749 error code returned from the authorization or
// token endpoint.
type ErrorCode string

const (
	ErrInvalidRequest          ErrorCode = "invalid_request"
	ErrInvalidClient           ErrorCode = "invalid_client"
	ErrInvalidGrant            ErrorCode = "invalid_grant"
	ErrUnauthorizedClient      ErrorCode = "unauthorized_client"
	ErrUnsupportedGrantType    ErrorCode = "unsupported_grant_type"
	ErrUnsupportedResponseType ErrorCode = "unsupported_response_type"
	ErrInvalidScope            ErrorCode = "invalid_scope"
	ErrAccessDenied            ErrorCode = "access_denied"
	ErrServerError             ErrorCode = "server_error"
)

// Error is a protocol-level failure carrying the wire error code. It is
// JSON-serializable as the token endpoint's error body and convertible to
// redirect query parameters for the authorization endpoint.
type Error struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError creates a protocol error with a formatted description.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Description: fmt.Sprintf(format, args...)}
}

// RedirectParams encodes the error for delivery on the client's redirect
// URI, preserving state when the request carried one.
func (e *Error) RedirectParams(state string) url.Values {
	values := url.Values{}
	values.Set("error", string(e.Code))
	if e.Description != "" {
		values.Set("error_description", e.Description)
	}
	if state != "" {
		values.Set("state", state)
	}
	return values
}

// StatusCode maps the error code onto the HTTP status the token endpoint
// must use. invalid_client is 401 per RFC 6749 §5.2, everything else 400.
func (e *Error) StatusCode() int {
	if e.Code == ErrInvalidClient {
		return 401
	}
	return 400
}
