package fulfillment

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/fulfillment/internal/domain/fulfillment"
	"github.com/go-playground/validator/v10"
)

var commandValidator = newCommandValidator()

func newCommandValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateCommand checks the struct tags of cmd and reports the first
// failing field as a ValidationError
func validateCommand(cmd any) error {
	err := commandValidator.Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &fulfillment.ValidationError{Field: fe.Field(), Reason: describeFieldError(fe)}
	}
	return &fulfillment.ValidationError{Reason: err.Error()}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag() + " check"
}
