package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wesleyorama2/phobia/internal/record"
)

// ValidationError represents a record validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRecords validates every record.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
func ValidateRecords(records []record.Record) error {
	errs := &ValidationErrors{}

	if len(records) == 0 {
		errs.Add("records", "at least one record is required")
	}

	for i, rec := range records {
		prefix := fmt.Sprintf("records[%d]", i)

		addFieldErrors(errs, prefix, validate.Struct(rec))

		if rec.Body == nil {
			errs.Add(prefix+".body", "body is required")
			continue
		}
		addFieldErrors(errs, prefix+".body", validate.Struct(rec.Body))
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// addFieldErrors converts validator errors into ValidationErrors entries.
func addFieldErrors(errs *ValidationErrors, prefix string, err error) {
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(prefix, err.Error())
		return
	}

	for _, fe := range fieldErrs {
		errs.Add(prefix+"."+strings.ToLower(fe.Field()), describe(fe))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("invalid URL: %v", fe.Value())
	case "gtefield":
		return fmt.Sprintf("must not be before %s", strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("failed rule '%s'", fe.Tag())
	}
}
