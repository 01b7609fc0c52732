package models

// Recipe keeps ingredients and steps in order; both are stored as JSONB
// arrays.
type Recipe struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"required"`
	Ingredients []string `json:"ingredients" validate:"dive,required"`
	Steps       []string `json:"steps" validate:"dive,required"`
}
