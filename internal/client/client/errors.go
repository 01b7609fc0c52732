package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// CodeError carries an identity error code (auth/...) returned by the
// server.
type CodeError struct {
	Code string
	Err  error
}

func (e *CodeError) Error() string { return e.Code }

func (e *CodeError) Unwrap() error { return e.Err }
