package services

import "errors"

// Identity errors. The transport maps each one to its client-visible code.
var (
	ErrEmailInUse      = errors.New("email already in use")
	ErrWeakPassword    = errors.New("weak password")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrUserNotFound    = errors.New("user not found")
	ErrWrongPassword   = errors.New("wrong password")
	ErrTooManyRequests = errors.New("too many failed attempts")
)

// Data errors.
var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrReadOnlyOperation = errors.New("collection is read-only")
)
