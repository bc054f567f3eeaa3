// Package validation checks request bodies and job variables against JSON schemas
// before any field is read.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// UpdateStatusSchema describes a review decision: the HTTP body of
// PUT /applications/{id} and the variables of the update-application-status job.
const UpdateStatusSchema = `{
	"type": "object",
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"status": {"type": "string", "enum": ["new", "reviewing", "approved", "rejected"]},
		"notes": {"type": ["string", "null"], "maxLength": 5000}
	},
	"required": ["status"]
}`

// DeleteApplicationSchema describes the variables of the delete-application job.
const DeleteApplicationSchema = `{
	"type": "object",
	"properties": {
		"applicationId": {"type": "string", "minLength": 1}
	},
	"required": ["applicationId"]
}`

// ResetPasswordSchema describes the body of POST /auth/reset-password.
const ResetPasswordSchema = `{
	"type": "object",
	"properties": {
		"token": {"type": "string", "minLength": 1},
		"password": {"type": "string", "minLength": 8, "maxLength": 128}
	},
	"required": ["token", "password"]
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Details joins every error as "field: message".
func (r *ValidationResult) Details() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// HasField reports whether any error concerns field.
func (r *ValidationResult) HasField(field string) bool {
	for _, e := range r.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Schema is a compiled JSON schema.
type Schema struct {
	schema *gojsonschema.Schema
}

func Compile(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON validates a raw JSON document.
func (s *Schema) ValidateJSON(document []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(document))
}

// ValidateInput validates an already-decoded document.
func (s *Schema) ValidateInput(input map[string]interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(input))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "malformed JSON document",
			Code:    "INVALID_JSON",
		}}}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(e),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

// fieldName reports the property a required error is about rather than its
// parent object.
func fieldName(e gojsonschema.ResultError) string {
	if e.Type() == "required" {
		if prop, ok := e.Details()["property"].(string); ok {
			return prop
		}
	}
	return e.Field()
}
