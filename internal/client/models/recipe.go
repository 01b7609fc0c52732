package models

import "strings"

type Recipe struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name" validate:"required"`
	Ingredients []string `json:"ingredients" validate:"dive,required"`
	Steps       []string `json:"steps" validate:"dive,required"`
}

func (r Recipe) Key() string { return r.ID }

func (r Recipe) WithKey(id string) Recipe {
	r.ID = id
	return r
}

// Normalize trims the name and every line. Empty lines are kept so that
// validation can point at them.
func (r Recipe) Normalize() Recipe {
	r.Name = strings.TrimSpace(r.Name)
	r.Ingredients = trimAll(r.Ingredients)
	r.Steps = trimAll(r.Steps)
	return r
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
