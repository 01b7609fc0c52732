package models

// User is the profile row written for an account on every sign-in. ID is
// the account uid.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username" validate:"required"`
	Email    *string `json:"email" validate:"omitempty,email"`
	RoleID   string  `json:"roleId" validate:"required"`
}
