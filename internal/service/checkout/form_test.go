package checkout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"jewelry-storefront/internal/apperr"
)

func TestValidateFormAcceptsValidForm(t *testing.T) {
	form := validForm()
	form.Customer.Name = "  Ada Lovelace  "
	require.NoError(t, ValidateForm(&form))
	require.Equal(t, "Ada Lovelace", form.Customer.Name)
}

func TestValidateFormNotesOptional(t *testing.T) {
	form := validForm()
	form.Notes = ""
	require.NoError(t, ValidateForm(&form))
}

func TestValidateFormDetails(t *testing.T) {
	form := Form{
		Customer:        CustomerForm{Name: "A", Email: "bad", Phone: "123"},
		ShippingAddress: AddressForm{Street: "1 A", City: "L", State: "C", PostalCode: "123", Country: "U"},
		Notes:           strings.Repeat("x", 1001),
	}
	err := ValidateForm(&form)
	typed := apperr.As(err)
	require.NotNil(t, typed)
	require.Equal(t, apperr.CodeValidation, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, map[string]string{
		"customer.name":              "Name must be at least 2 characters",
		"customer.email":             "Please enter a valid email address",
		"customer.phone":             "Please enter a valid phone number",
		"shippingAddress.street":     "Please enter a complete street address",
		"shippingAddress.city":       "Please enter a valid city",
		"shippingAddress.state":      "Please select a state",
		"shippingAddress.postalCode": "Please enter a valid postal code",
		"shippingAddress.country":    "Please select a country",
		"notes":                      "Notes must be at most 1000 characters",
	}, details)
}

func TestValidateFormWhitespaceOnly(t *testing.T) {
	form := validForm()
	form.ShippingAddress.Street = "      "
	err := ValidateForm(&form)
	require.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}
