// Package validation wraps go-playground/validator with the field naming and
// messages shared by the CLI forms and the dev server handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule, named after the field's json tag.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (fe FieldError) String() string {
	switch fe.Tag {
	case "required", "notblank":
		return fe.Field + " is required"
	case "email":
		return fe.Field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field, fe.Param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field, fe.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field, fe.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field, fe.Param)
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field, fe.Tag)
	}
}

// Error lists every failed rule in declaration order.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		msgs = append(msgs, fe.String())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any field failed tag.
func (e *Error) Has(tag string) bool {
	for _, fe := range e.Fields {
		if fe.Tag == tag {
			return true
		}
	}
	return false
}

// Validator is safe for concurrent use and satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &Validator{v: v}
}

// Validate checks i's struct tags and returns *Error on rule failures.
func (vd *Validator) Validate(i any) error {
	err := vd.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(ve))}
	for _, fe := range ve {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}
