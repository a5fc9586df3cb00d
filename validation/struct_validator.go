package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/kbukum/scribe/errors"
)

// Errors name fields by config key, falling back to the json name and then
// to the snake_cased Go name.
var getValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"mapstructure", "json"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return toSnakeCase(fld.Name)
	})
	return v
})

// Validate validates a struct using struct tags such as
// `validate:"required,min=1"`. Field names in the error are dotted config
// paths, e.g. "batch.concurrency".
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "validation failed: "+err.Error())
	}
	fields := make([]FieldError, len(verrs))
	for i, e := range verrs {
		fields[i] = FieldError{Field: fieldPath(e), Message: describe(e)}
	}
	return invalid(fields)
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// describe renders one failed tag as a short phrase.
func describe(e validator.FieldError) string {
	numeric := false
	switch e.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		numeric = true
	}

	switch e.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		if numeric {
			return "must be at least " + e.Param()
		}
		return "must be at least " + e.Param() + " characters"
	case "max", "lte":
		if numeric {
			return "must be at most " + e.Param()
		}
		return "must be at most " + e.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "hostname_port":
		return "must be host:port"
	default:
		return "is invalid"
	}
}

// toSnakeCase turns an exported Go field name into its config key form,
// "MaxFiles" into "max_files".
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
