// Package validation wraps go-playground/validator for request DTOs. Field
// errors are reported under their JSON names so clients can map them back
// onto the submitted object.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/converswp/trustbadges/internal/apperror"
)

var validate = New()

// New returns a validator that names fields by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s with the shared validator. A failure is returned as a
// validation AppError carrying per-field messages.
func Struct(s any) error {
	return Check(validate, s, "invalid request")
}

// Check validates s with v. message becomes the AppError message on failure.
func Check(v *validator.Validate, s any, message string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternal(fmt.Errorf("validating %T: %w", s, err))
	}
	return apperror.NewValidationFields(message, Fields(verrs))
}

// Fields maps validation failures to short client-facing phrases. The first
// failure per field wins.
func Fields(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = Describe(fe)
		}
	}
	return out
}

// Describe renders one validator failure.
func Describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "groupid":
		return "may only contain letters, digits and hyphens"
	case "badgeid":
		return "may only contain letters, digits, hyphens and underscores"
	}
	return "is invalid"
}
