package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/saferoute-service/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates a struct and converts field failures into the
// application error shape so handlers never leak validator internals.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		first := fieldErrs[0]
		return errors.ErrValidation.WithDetails(map[string]interface{}{
			"field": first.Field(),
			"rule":  first.Tag(),
		})
	}

	return errors.ErrValidation
}

// GetValidator exposes the underlying validator for custom configuration.
func GetValidator() *validator.Validate {
	return validate
}
