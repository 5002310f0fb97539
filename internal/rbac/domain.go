// Package rbac manages the permission catalog: permission codes, roles, and
// the assignment of codes to roles. Principals snapshot their flattened
// permissions from here at login; catalog edits never rewrite issued
// sessions.
package rbac

import "errors"

// Permission represents an atomic capability identified by its code.
// Codes are human-assigned, globally unique and immutable once created.
type Permission struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
}

// Role groups permission codes under a name.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
}

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("rbac: duplicate")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("rbac: invalid input")
)
