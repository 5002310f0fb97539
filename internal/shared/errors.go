package shared

import "errors"

var (
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials covers every login failure: unknown username,
	// wrong password and deactivated accounts all look the same to a caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing is returned when a mutating request carries no token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch is returned when the supplied token does not match
	// the session token.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
