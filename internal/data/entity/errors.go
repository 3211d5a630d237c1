package entity

import "errors"

// Domain errors. Handlers map these to stable error codes, so every
// failure a caller can act on must wrap one of them.
var (
	ErrConflict        = errors.New("resource already claimed")
	ErrInvalidState    = errors.New("operation not valid from current state")
	ErrNotFound        = errors.New("not found")
	ErrExpired         = errors.New("check-in window has closed")
	ErrInvalidToken    = errors.New("unknown or already consumed token")
	ErrPolicyViolation = errors.New("policy violation")
	ErrValidation      = errors.New("validation failed")
)
