// Package validator wraps go-playground struct validation for the HTTP
// request payloads. Failures are reported under json field names so error
// messages match the wire shape the caller sent.
package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is one failed rule on one field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects every failed rule of one payload.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(v))
	for _, failure := range v {
		msg := failure.Field + " failed on " + failure.Tag
		if failure.Param != "" {
			msg += "=" + failure.Param
		}
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

var (
	once     sync.Once
	instance *validator.Validate
)

// ValidateStruct runs the struct's validate tags and converts failures into
// ValidationErrors keyed by json field name.
func ValidateStruct(s any) error {
	err := shared().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		failures := make(ValidationErrors, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}
	return err
}

func shared() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(jsonFieldName)
	})
	return instance
}

// jsonFieldName reports the wire name of a struct field, falling back to the
// Go name for untagged or suppressed fields.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if name, _, found := strings.Cut(tag, ","); found {
		tag = name
	}
	if tag == "" || tag == "-" {
		return field.Name
	}
	return tag
}
