package models

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCustomer_Normalize(t *testing.T) {
	c := Customer{FirstName: " Ann ", LastName: "Lee", Email: strPtr("  "), Phone: strPtr(" 555 ")}.Normalize()

	assert.Equal(t, "Ann", c.FirstName)
	assert.Nil(t, c.Email)
	require.NotNil(t, c.Phone)
	assert.Equal(t, "555", *c.Phone)
	assert.Equal(t, "Ann Lee", c.FullName())
}

func TestCustomer_WithKeyKeepsFields(t *testing.T) {
	c := Customer{ID: "old", FirstName: "Ann"}.WithKey("new")
	assert.Equal(t, "new", c.Key())
	assert.Equal(t, "Ann", c.FirstName)
}

func TestValidate_Customer(t *testing.T) {
	require.NoError(t, Validate(Customer{FirstName: "Ann", LastName: "Lee"}))
	require.NoError(t, Validate(Customer{FirstName: "Ann", LastName: "Lee", Email: strPtr("ann@example.com")}))

	err := Validate(Customer{FirstName: "Ann", Email: strPtr("not-an-email")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorValidation))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	assert.Equal(t, "is required", fields["lastName"])
	assert.Equal(t, "must be a valid email address", fields["email"])
}

func TestValidate_Recipe(t *testing.T) {
	require.NoError(t, Validate(Recipe{Name: "Soup", Ingredients: []string{"water"}, Steps: []string{"boil"}}))

	err := Validate(Recipe{Name: "Soup", Ingredients: []string{"water", ""}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "ingredients[1]", verr.Fields[0].Field)

	assert.Error(t, Validate(Recipe{}))
}

func TestRecipe_Normalize(t *testing.T) {
	r := Recipe{Name: " Soup ", Ingredients: []string{" water "}, Steps: []string{"boil "}}.Normalize()
	assert.Equal(t, Recipe{Name: "Soup", Ingredients: []string{"water"}, Steps: []string{"boil"}}, r)
}

func TestValidate_Credentials(t *testing.T) {
	require.NoError(t, Validate(Credentials{Email: "a@b.co", Password: "secret"}))

	err := Validate(Credentials{Email: "a@b.co", Password: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password must be at least 6 characters")

	assert.Error(t, Validate(Registration{Email: "a@b.co", Password: "secret"}))
}

func TestOrder_CustomerName(t *testing.T) {
	assert.Equal(t, "-", Order{}.CustomerName())
	assert.Equal(t, "Ann Lee", Order{Customer: &OrderCustomer{FirstName: "Ann", LastName: "Lee"}}.CustomerName())
}
