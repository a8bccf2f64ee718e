// Package jsonschema validates JSON documents against a JSON Schema.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema
type Schema struct {
	schema *jsonschema.Schema
}

// Compile parses and compiles a schema document
func Compile(name, schemaStr string) (*Schema, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource(name, strings.NewReader(schemaStr)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Schema{schema: schema}, nil
}

// MustCompile is like Compile but panics on an invalid schema
func MustCompile(name, schemaStr string) *Schema {
	s, err := Compile(name, schemaStr)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate validates a JSON document. It returns nil if the document is
// valid, ValidationErrors listing every violation if it is not, or a plain
// error if the document is not JSON.
func (s *Schema) Validate(data []byte) error {
	doc, err := unmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := s.schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return extractValidationErrors(validationErr)
		}
		return ValidationErrors{err}
	}

	return nil
}

// unmarshalJSON decodes a single JSON value with json.Number preserved, as
// jsonschema/v5 expects, rejecting trailing data after the value.
func unmarshalJSON(r io.Reader) (interface{}, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid character after top-level value")
	}
	return doc, nil
}

// ValidateWithErrors validates a JSON string against a JSON Schema
// Returns true if the JSON is valid, false otherwise
// Also returns a list of validation errors if the JSON is invalid
func ValidateWithErrors(jsonStr, schemaStr string) (bool, ValidationErrors) {
	schema, err := Compile("schema.json", schemaStr)
	if err != nil {
		return false, ValidationErrors{err}
	}

	if err := schema.Validate([]byte(jsonStr)); err != nil {
		if errs, ok := err.(ValidationErrors); ok {
			return false, errs
		}
		return false, ValidationErrors{err}
	}

	return true, nil
}

// extractValidationErrors flattens a validation error tree into its leaves
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("%s: %s", location, err.Message)}
	}

	var errors ValidationErrors
	for _, childErr := range err.Causes {
		errors = append(errors, extractValidationErrors(childErr)...)
	}
	return errors
}
