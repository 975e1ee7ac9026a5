package auth

import (
	"errors"
	"strings"
)

var (
	ErrSecretRequired     = errors.New("auth: jwt secret required")
	ErrValidation         = errors.New("auth: validation failed")
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrNoSession          = errors.New("auth: no session token")
	ErrInvalidToken       = errors.New("auth: invalid token")
)

// ValidationError describes rejected input. MissingFields lists absent required
// fields; MissingOptional lists absent optional ones and never causes rejection
// on its own.
type ValidationError struct {
	Message         string
	MissingFields   []string
	MissingOptional []string
}

func (e *ValidationError) Error() string {
	if len(e.MissingFields) == 0 {
		return "auth: " + e.Message
	}
	return "auth: " + e.Message + " (missing: " + strings.Join(e.MissingFields, ", ") + ")"
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
