package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
)

type CustomerForm struct {
	Name  string `json:"name" validate:"min=2"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"min=10"`
}

type AddressForm struct {
	Street     string `json:"street" validate:"min=5"`
	City       string `json:"city" validate:"min=2"`
	State      string `json:"state" validate:"min=2"`
	PostalCode string `json:"postalCode" validate:"min=5"`
	Country    string `json:"country" validate:"min=2"`
}

// Form is the checkout request entered by the shopper.
type Form struct {
	Customer        CustomerForm `json:"customer"`
	ShippingAddress AddressForm  `json:"shippingAddress"`
	Notes           string       `json:"notes" validate:"max=1000"`
}

var fieldMessages = map[string]string{
	"customer.name":              "Name must be at least 2 characters",
	"customer.email":             "Please enter a valid email address",
	"customer.phone":             "Please enter a valid phone number",
	"shippingAddress.street":     "Please enter a complete street address",
	"shippingAddress.city":       "Please enter a valid city",
	"shippingAddress.state":      "Please select a state",
	"shippingAddress.postalCode": "Please enter a valid postal code",
	"shippingAddress.country":    "Please select a country",
	"notes":                      "Notes must be at most 1000 characters",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Normalize trims every field in place.
func (f *Form) Normalize() {
	for _, p := range []*string{
		&f.Customer.Name, &f.Customer.Email, &f.Customer.Phone,
		&f.ShippingAddress.Street, &f.ShippingAddress.City, &f.ShippingAddress.State,
		&f.ShippingAddress.PostalCode, &f.ShippingAddress.Country,
		&f.Notes,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// ValidateForm normalizes the form and returns a VALIDATION_ERROR whose
// details map each invalid field path to a message.
func ValidateForm(f *Form) error {
	f.Normalize()
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		path := fieldPath(fe.Namespace())
		if msg, ok := fieldMessages[path]; ok {
			details[path] = msg
			continue
		}
		details[path] = validationMessage(fe)
	}
	return apperr.New(apperr.CodeValidation, "validation failed").WithDetails(details)
}

// fieldPath strips the root type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

func (f Form) customer(uid string) domain.OrderCustomer {
	return domain.OrderCustomer{
		UID:   uid,
		Name:  f.Customer.Name,
		Email: f.Customer.Email,
		Phone: f.Customer.Phone,
	}
}

func (f Form) address() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:     f.ShippingAddress.Street,
		City:       f.ShippingAddress.City,
		State:      f.ShippingAddress.State,
		PostalCode: f.ShippingAddress.PostalCode,
		Country:    f.ShippingAddress.Country,
	}
}
