package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/scribe/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks on request parameters. The checks
// chain, and Err reports all of them at once.
//
//	err := validation.New().
//	    UUID("id", c.Param("id")).
//	    Range("limit", limit, 1, 1000).
//	    Err()
type Validator struct {
	fields []FieldError
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// Check records message for field unless ok holds.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.fields = append(v.fields, FieldError{Field: field, Message: message})
	}
	return v
}

// Required fails on an empty or blank value.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// UUID fails when value is set but not a UUID. Pair it with Required for
// mandatory IDs.
func (v *Validator) UUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	_, err := uuid.Parse(value)
	return v.Check(err == nil, field, "must be a valid UUID")
}

// Range fails when value lies outside [lo, hi].
func (v *Validator) Range(field string, value, lo, hi int) *Validator {
	return v.Check(value >= lo && value <= hi, field, fmt.Sprintf("must be between %d and %d", lo, hi))
}

// OneOf fails when value is set but not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.Check(value == "" || slices.Contains(allowed, value), field,
		"must be one of: "+strings.Join(allowed, ", "))
}

// Fields returns the failed checks in the order they were made.
func (v *Validator) Fields() []FieldError { return v.fields }

// Err returns nil when every check passed, else an INVALID_INPUT AppError
// listing each failure.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return invalid(v.fields)
}

func invalid(fields []FieldError) *apperrors.AppError {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return apperrors.New(apperrors.ErrCodeInvalidInput, strings.Join(msgs, "; ")).
		WithDetail("fields", fields)
}
