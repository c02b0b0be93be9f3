package data

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

type requiredFields struct {
	Name  string `validate:"notblank"`
	Email string `validate:"notblank"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(err)
	}
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}

func toRequiredFields(e EmployeePartial) requiredFields {
	var r requiredFields

	if e.Name != nil {
		r.Name = *e.Name
	}
	if e.Email != nil {
		r.Email = *e.Email
	}
	return r
}

func validationError(err error) error {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}
	switch field := validationErrors[0].StructField(); field {
	default:
		return NewErrorInvalidInput("Employee %s is required", strings.ToLower(field))
	case "Name":
		return ErrNameRequired
	case "Email":
		return ErrEmailRequired
	}
}

// ValidateCreate requires a non-blank name and then a non-blank email
func ValidateCreate(e EmployeePartial) error {
	if err := validate.Struct(toRequiredFields(e)); err != nil {
		return validationError(err)
	}
	return nil
}

// ValidateUpdate requires a non-blank name
func ValidateUpdate(e EmployeePartial) error {
	if err := validate.StructPartial(toRequiredFields(e), "Name"); err != nil {
		return validationError(err)
	}
	return nil
}
