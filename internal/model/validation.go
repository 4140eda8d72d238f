package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a set of field-scoped failures. It is returned before any
// write happens, so a caller can re-render its form with the messages attached.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// Add records msg for field. The first message recorded for a field wins.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Merge copies the failures of other into e.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.Fields {
		e.Add(field, msg)
	}
}

// OrNil returns e as an error, or nil when no failure was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = fmt.Sprintf("%s: %s", field, e.Fields[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError builds a single-field validation error.
func FieldError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields under their form names so messages line up with the inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return v
}

// validateStruct runs the struct tags of s and maps each failure to the message
// registered under "field.tag". It always returns a non-nil *ValidationError.
func validateStruct(s any, messages map[string]string) *ValidationError {
	verr := &ValidationError{}

	err := validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("__all__", err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		verr.Add(fe.Field(), msg)
	}
	return verr
}

// normalizeText strips surrounding whitespace, so blank text counts as missing.
func normalizeText(s string) string {
	return strings.TrimSpace(s)
}
