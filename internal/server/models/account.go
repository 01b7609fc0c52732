// Package models defines the rows the server persists in Postgres and the
// records the data service exchanges with clients.
package models

import "time"

// Account is a sign-in identity. Passwords are stored as an argon2id hash
// of the password under Salt.
type Account struct {
	ID             string
	Email          string
	DisplayName    string
	Salt           []byte
	PasswordHash   []byte
	FailedAttempts int
	LockedUntil    *time.Time
	CreatedAt      time.Time
}

// Locked reports whether sign-in is refused for the account at now.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}
