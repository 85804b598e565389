package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// Validator checks request payloads against their `validate` struct tags.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator that reports fields by their json names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns a VALIDATION_FAILED DomainError with per-field details.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		details[fieldErr.Field()] = message(fieldErr)
	}
	return apperrors.NewValidationError("validation failed", details)
}

func message(err validator.FieldError) string {
	name := prettify(err.Field())
	switch err.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "min":
		return name + " must be at least " + err.Param() + " characters long"
	case "max":
		return name + " must be at most " + err.Param() + " characters long"
	case "oneof":
		return name + " must be one of the following: " + err.Param()
	case "gt":
		return name + " must be greater than " + err.Param()
	default:
		return name + " is invalid"
	}
}

// prettify turns customer_id into "Customer Id".
func prettify(field string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.ReplaceAll(field, "_", " "))
}
