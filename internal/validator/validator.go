package validator

import (
	"reflect"
	"strings"

	ierr "github.com/brewcycle/brewcycle/internal/errors"
	"github.com/brewcycle/brewcycle/internal/types"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// NewValidator builds the shared validator with the domain tags registered:
//   - frequency: one of the supported delivery cadences
//   - subscription_status: one of active, paused, cancelled
//
// Field names in errors use the json tag so details match the request body.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return types.Frequency(fl.Field().String()).IsKnown()
	})
	_ = v.RegisterValidation("subscription_status", func(fl validator.FieldLevel) bool {
		return types.SubscriptionStatus(fl.Field().String()).Validate() == nil
	})
	validate = v
	return validate
}

func GetValidator() *validator.Validate {
	return validate
}

// ValidateRequest runs struct tag validation and converts failures into a
// validation error carrying one detail per offending field
func ValidateRequest(req interface{}) error {
	if validate == nil {
		return ierr.NewError("validator not initialized").
			WithHint("Validator must be initialized before using it").
			Mark(ierr.ErrSystem)
	}

	if err := validate.Struct(req); err != nil {
		details := make(map[string]any)
		var validateErrs validator.ValidationErrors
		if ierr.As(err, &validateErrs) {
			for _, err := range validateErrs {
				details[err.Field()] = err.Error()
			}
		}
		return ierr.WithError(err).
			WithHint("Request validation failed").
			WithReportableDetails(details).
			Mark(ierr.ErrValidation)
	}
	return nil
}
