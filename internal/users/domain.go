package users

import (
	"errors"
	"time"
)

// User represents an operator account for management screens. The password
// hash never leaves the package.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"isActive"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("users: user not found")
	ErrDuplicate  = errors.New("users: duplicate user")
	ErrValidation = errors.New("users: validation failed")
)
