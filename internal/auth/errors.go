package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrDuplicateEmail     = errors.New("auth: email already registered")
	ErrNoSession          = errors.New("auth: no active session")
	ErrNotFound           = errors.New("auth: not found")
)
