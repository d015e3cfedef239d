package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps a draft field (by its JSON name) to a message meant
// to be shown next to that field.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid checkout fields: %s", strings.Join(fields, ", "))
}

var fieldMessages = map[string]string{
	"email":      "Please enter a valid email",
	"first_name": "First name is required",
	"last_name":  "Last name is required",
	"phone":      "Phone number is required",
	"address_1":  "Address is required",
	"city":       "City is required",
	"state":      "State/Province is required",
	"postcode":   "Postal code is required",
	"country":    "Country is required",
	"password":   "Password is required to create an account",
}

type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate checks the draft's required contact and address fields. It returns
// nil or ValidationErrors.
func (v *Validator) Validate(draft domain.CheckoutDraft) error {
	err := v.v.Struct(draft)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate checkout draft: %w", err)
	}
	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		out[fe.Field()] = msg
	}
	return out
}
