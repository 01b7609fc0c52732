package session

import (
	"errors"

	"github.com/dmitrijs2005/restaurant/internal/client/identity"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
)

// Kinds of AuthError.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrEmailInUse         = errors.New("email in use")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUnknown            = errors.New("unknown auth error")
)

// AuthError is a failed login or registration. It matches its Kind and its
// Cause with errors.Is.
type AuthError struct {
	Kind  error
	Cause error
}

func (e *AuthError) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Cause.Error()
}

func (e *AuthError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

var messages = map[error]string{
	ErrInvalidCredentials: "Invalid email or password",
	ErrTooManyAttempts:    "Too many failed login attempts. Please try again later",
	ErrEmailInUse:         "This email is already in use",
	ErrWeakPassword:       "Password is too weak",
	ErrInvalidEmail:       "Invalid email address",
}

// Message is the text shown on the login or register form for err.
func Message(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		if msg, ok := messages[ae.Kind]; ok {
			return msg
		}
	}
	return "An error occurred. Please try again"
}

func mapSignInError(err error) error {
	switch providerCode(err) {
	case rpc.CodeUserNotFound, rpc.CodeWrongPassword:
		return &AuthError{Kind: ErrInvalidCredentials, Cause: err}
	case rpc.CodeTooManyRequests:
		return &AuthError{Kind: ErrTooManyAttempts, Cause: err}
	}
	return &AuthError{Kind: ErrUnknown, Cause: err}
}

func mapSignUpError(err error) error {
	switch providerCode(err) {
	case rpc.CodeEmailInUse:
		return &AuthError{Kind: ErrEmailInUse, Cause: err}
	case rpc.CodeWeakPassword:
		return &AuthError{Kind: ErrWeakPassword, Cause: err}
	case rpc.CodeInvalidEmail:
		return &AuthError{Kind: ErrInvalidEmail, Cause: err}
	}
	return &AuthError{Kind: ErrUnknown, Cause: err}
}

func providerCode(err error) string {
	var pe *identity.ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
