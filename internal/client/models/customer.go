// Package models defines the records the console reads and writes through
// the data service, together with their form validation rules.
package models

import "strings"

// Customer is a row of the customers collection. Email and Phone are nil
// when absent.
type Customer struct {
	ID        string  `json:"id,omitempty"`
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone"`
}

func (c Customer) Key() string { return c.ID }

func (c Customer) WithKey(id string) Customer {
	c.ID = id
	return c
}

// FullName joins first and last name for display.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Normalize trims every field and turns empty optional fields into nil.
func (c Customer) Normalize() Customer {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = optional(c.Email)
	c.Phone = optional(c.Phone)
	return c
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// StringOrEmpty dereferences s, treating nil as "".
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
