// Package validation checks request payloads before they are sent to the API.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/desertthunder/favx/internal/shared"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator and reports failures as [shared.ErrInvalidInput].
type Validator struct {
	v *validator.Validate
}

// FieldErrors maps a JSON field name to a human readable problem.
type FieldErrors map[string]string

// Error is returned by [Validator.Validate] and unwraps to [shared.ErrInvalidInput].
type Error struct {
	Fields FieldErrors
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", shared.ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return shared.ErrInvalidInput }

// New creates a validator that names fields by their json tag.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks s against its validate tags.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// ValidatePartial checks s like [Validator.Validate] but skips the named Go fields.
func (v *Validator) ValidatePartial(s any, skip ...string) error {
	if len(skip) == 0 {
		return v.Validate(s)
	}
	if err := v.v.StructExcept(s, skip...); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	fields := make(FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
