// Package validator provides request payload validation built on
// go-playground/validator struct tags.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"introportal_backend/platform/apperr"
)

// Validator wraps a configured validator instance.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with struct tag validation enabled.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Struct validates a struct and returns an apperr validation error with
// per-field details when validation fails.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return apperr.Wrap(apperr.KindValidation, "invalid payload", err)
	}

	details := make(map[string]string, len(invalid))
	for _, fieldErr := range invalid {
		details[fieldName(fieldErr)] = fieldMessage(fieldErr)
	}

	return apperr.Validation("validation failed").WithDetails(details)
}

func fieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		return strings.Join(parts[1:], ".")
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
