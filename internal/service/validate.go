package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marshallshelly/pebble-shop/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their label tag so messages read like the form.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// messageOverrides maps "Struct.Field.tag" to a fixed message.
type messageOverrides map[string]string

// check validates s and converts failures to apperr.ValidationErrors in field order.
func check(s any, overrides messageOverrides) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Internal(err)
	}
	msgs := make(apperr.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := fe.StructNamespace()
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[i+1:]
		}
		if msg, ok := overrides[key+"."+fe.Tag()]; ok {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, message(fe))
	}
	return msgs
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "contains":
		return fmt.Sprintf("%s must contain %q", field, fe.Param())
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
